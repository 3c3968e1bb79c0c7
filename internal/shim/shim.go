package shim

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/kopi-vm/kopi/internal/applog"
	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/resolve"
	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/version"
)

// Run implements spec.md §4.7's full per-invocation control flow for the
// kopi-shim binary. osArgs is the process's raw argument vector (osArgs[0]
// is the invoked name); home is KOPI_HOME; cwd is the resolution starting
// point (normally the process's working directory).
//
// On success this function does not return: step 6 replaces the current
// process on Unix, or calls os.Exit after propagating the child's exit
// code on Windows. It only returns when it fails before reaching step 6.
func Run(home, cwd string, osArgs []string, log *applog.Logger) error {
	if len(osArgs) == 0 {
		return errors.New("empty argument vector")
	}

	tool := ToolName(InvokedAs(osArgs[0]))

	cfg, err := config.Load(home)
	if err != nil {
		return err
	}

	req, src, err := resolve.Resolve(cwd, home, cfg)
	if err != nil {
		return err
	}
	log.Debugf("resolved %s from %s", req.Raw(), src.Kind)

	store := storage.NewStore(home, req.PackageType)
	jdk, err := resolveOrInstall(store, home, req, cfg, log)
	if err != nil {
		return err
	}

	toolPath, err := ToolExecutable(jdk, tool)
	if err != nil {
		if tnf, ok := err.(*kopierr.ToolNotFound); ok {
			all, listErr := store.List()
			if listErr == nil {
				tnf.OtherJdksWith = FindOthersWith(all, jdk.Path, tool)
			}
			return tnf
		}
		return err
	}

	return Replace(toolPath, osArgs)
}

// resolveOrInstall matches req against the installed JDKs in store, per
// spec.md §4.7 step 3: a unique match proceeds, no match triggers the
// auto-install fall-through (spec.md §4.7's "Auto-install fall-through"),
// and multiple matches fail with AmbiguousJdk.
func resolveOrInstall(store *storage.Store, home string, req *version.Request, cfg config.Config, log *applog.Logger) (*storage.InstalledJdk, error) {
	jdk, err := selectUnique(store, req)
	if err == nil {
		return jdk, nil
	}
	var ambiguous *kopierr.AmbiguousJdk
	if errors.As(err, &ambiguous) {
		return nil, err
	}

	if !cfg.AutoInstall.Enabled {
		return nil, &kopierr.JdkNotInstalled{Spec: req.Raw()}
	}

	if cfg.AutoInstall.Prompt && term.IsTerminal(int(os.Stdin.Fd())) {
		if !confirmInstall(req.Raw()) {
			return nil, &kopierr.JdkNotInstalled{Spec: req.Raw()}
		}
	}

	if err := autoInstall(home, req, cfg, log); err != nil {
		return nil, err
	}

	return selectUnique(store, req)
}

// Select finds the unique InstalledJdk matching req, for callers (like
// `kopi which`) that need C5's matching rule without the rest of Run's
// auto-install/exec flow.
func Select(store *storage.Store, req *version.Request) (*storage.InstalledJdk, error) {
	return selectUnique(store, req)
}

// selectUnique finds the InstalledJdk matching req's distribution and
// version pattern, per spec.md §4.7 step 3 / §4.2's matching rule.
func selectUnique(store *storage.Store, req *version.Request) (*storage.InstalledJdk, error) {
	all, err := store.List()
	if err != nil {
		return nil, err
	}

	var matches []*storage.InstalledJdk
	for _, j := range all {
		if req.Distribution != "" && j.Distribution != req.Distribution {
			continue
		}
		v, err := version.Parse(j.DistributionVersion)
		if err != nil {
			continue
		}
		if req.Pattern.Matches(v) {
			matches = append(matches, j)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &kopierr.JdkNotInstalled{Spec: req.Raw()}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = fmt.Sprintf("%s-%s", m.Distribution, m.DistributionVersion)
		}
		sort.Strings(names)
		return nil, &kopierr.AmbiguousJdk{Pattern: req.Raw(), Candidates: names}
	}
}

// confirmInstall implements auto_install.prompt: "if interactive, ask before
// installing" (spec.md §3). Only reached once term.IsTerminal has already
// confirmed stdin is a tty.
func confirmInstall(spec string) bool {
	fmt.Fprintf(os.Stderr, "kopi: %s is not installed. Install now? [Y/n] ", spec)
	var answer string
	fmt.Fscanln(os.Stdin, &answer)
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// autoInstall spawns the main kopi binary to install req, per spec.md
// §4.7's "Auto-install fall-through": streams the child's stderr through
// and bounds the wait by auto_install.timeout_secs.
func autoInstall(home string, req *version.Request, cfg config.Config, log *applog.Logger) error {
	kopiBin, err := exec.LookPath("kopi")
	if err != nil {
		return errors.Wrap(err, "locating kopi binary for auto-install")
	}

	cmd := exec.Command(kopiBin, "install", req.Raw())
	cmd.Env = append(os.Environ(), "KOPI_HOME="+home)
	cmd.Stdout = io.Discard
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(err, "piping auto-install stderr")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "starting auto-install")
	}
	go io.Copy(log.Out, stderr)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timeout := time.Duration(cfg.AutoInstall.TimeoutSecs) * time.Second
	select {
	case err := <-done:
		if err != nil {
			return errors.Wrapf(err, "auto-install of %s failed", req.Raw())
		}
		return nil
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		return errors.Errorf("auto-install of %s timed out after %s", req.Raw(), timeout)
	}
}
