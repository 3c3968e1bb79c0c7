// Command kopi is a command-line JDK version manager: it resolves a
// project or global Java version, installs and removes JDK distributions,
// and maintains the shims that make `java`/`javac`/etc. on PATH dispatch to
// the right installation.
//
// Structured after golang-dep's cmd/dep/main.go: a small `command`
// interface, one flag.FlagSet per subcommand, and an explicit registry
// instead of a reflection-based CLI framework (see SPEC_FULL.md §4 for why
// cobra, used elsewhere in the retrieval pack, is not adopted here).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/kopi-vm/kopi/internal/applog"
	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/lock"
)

// command is the per-subcommand contract every cmd/kopi/*.go file
// implements, mirroring golang-dep's cmd/dep command interface.
type command interface {
	Name() string
	Args() string
	ShortHelp() string
	LongHelp() string
	Register(*flag.FlagSet)
	Hidden() bool
	Run(ctx *Ctx, args []string) error
}

// Ctx is the per-invocation context built once in main and threaded
// through every subcommand, the way golang-dep threads *dep.Ctx.
type Ctx struct {
	Home       string
	Cwd        string
	Log        *applog.Logger
	Cfg        config.Config
	Controller *lock.Controller
	ShimPath   string
}

const defaultFoojayBaseURL = "https://api.foojay.io/disco/v3.0"

func main() {
	os.Exit(run(os.Args, os.Stderr))
}

func run(args []string, stderr *os.File) (exitCode int) {
	commands := []command{
		&installCommand{},
		&uninstallCommand{},
		&listCommand{},
		&currentCommand{},
		&whichCommand{},
		&envCommand{},
		&shellCommand{},
		&globalCommand{},
		&localCommand{},
		&cacheCommand{},
		&shimCommand{},
		&setupCommand{},
		&versionCommand{},
	}

	errLogger := log.New(stderr, "", 0)

	usage := func() {
		errLogger.Println("kopi manages JDK installations and the shims that dispatch to them")
		errLogger.Println()
		errLogger.Println("Usage: kopi <command> [arguments]")
		errLogger.Println()
		errLogger.Println("Commands:")
		w := tabwriter.NewWriter(stderr, 0, 4, 2, ' ', 0)
		for _, c := range commands {
			if !c.Hidden() {
				fmt.Fprintf(w, "\t%s\t%s\n", c.Name(), c.ShortHelp())
			}
		}
		w.Flush()
		errLogger.Println()
		errLogger.Println(`Use "kopi <command> -h" for more information about a command.`)
	}

	cmdName, printCmdHelp, exit := parseArgs(args)
	if exit {
		usage()
		return 1
	}

	for _, c := range commands {
		if c.Name() != cmdName {
			continue
		}

		fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		fs.SetOutput(stderr)
		verbosity := 0
		countV := func(n int) func(string) error {
			return func(string) error { verbosity += n; return nil }
		}
		fs.BoolFunc("v", "raise verbosity one step (repeatable: -v info, -v -v debug, -v -v -v trace)", countV(1))
		fs.BoolFunc("vv", "same as -v -v", countV(2))
		fs.BoolFunc("vvv", "same as -v -v -v", countV(3))
		c.Register(fs)
		resetUsage(errLogger, fs, cmdName, c.Args(), c.LongHelp())

		if printCmdHelp {
			fs.Usage()
			return 1
		}
		if err := fs.Parse(args[2:]); err != nil {
			return 1
		}

		ctx, err := newCtx(verbosity)
		if err != nil {
			errLogger.Printf("kopi: %v\n", err)
			return 1
		}

		if err := c.Run(ctx, fs.Args()); err != nil {
			errLogger.Printf("kopi: %v\n", err)
			for _, hint := range kopierr.Hint(err) {
				errLogger.Println(hint)
			}
			return kopierr.ExitCode(err)
		}
		return 0
	}

	errLogger.Printf("kopi: %s: no such command\n", cmdName)
	usage()
	return 1
}

// newCtx builds the shared per-invocation context: KOPI_HOME resolution,
// config load, logger, and the lock controller, the same bundle every
// mutating subcommand needs per spec.md §4.9.
func newCtx(verbosity int) (*Ctx, error) {
	home, err := kopiHome()
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	logger := applog.New()
	logger.SetVerbosity(verbosity)
	logger.ApplyEnvOverride()

	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}

	controller := lock.NewController(home, nil, func(mount string) {
		logger.Warnf("locks directory %s does not support advisory locking; falling back to rename-based locking", mount)
	})
	if backend, forced := cfg.ForcedBackend(); forced {
		controller.SetForcedBackend(backend)
	}
	if err := controller.Sweep(); err != nil {
		logger.Warnf("lock hygiene sweep: %v", err)
	}

	exe, err := os.Executable()
	if err != nil {
		exe = "kopi"
	}
	shimPath := filepath.Join(filepath.Dir(exe), shimBinaryName())

	return &Ctx{Home: home, Cwd: cwd, Log: logger, Cfg: cfg, Controller: controller, ShimPath: shimPath}, nil
}

func shimBinaryName() string {
	if os.PathSeparator == '\\' {
		return "kopi-shim.exe"
	}
	return "kopi-shim"
}

// kopiHome returns KOPI_HOME, defaulting to ~/.kopi per spec.md §3.
func kopiHome() (string, error) {
	if home := os.Getenv("KOPI_HOME"); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(userHome, ".kopi"), nil
}

func resetUsage(logger *log.Logger, fs *flag.FlagSet, name, args, longHelp string) {
	var (
		hasFlags   bool
		flagBlock  bytes.Buffer
		flagWriter = tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	)
	fs.VisitAll(func(f *flag.Flag) {
		hasFlags = true
		def := f.DefValue
		if def == "" {
			def = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, def)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		logger.Printf("Usage: kopi %s %s\n", name, args)
		logger.Println()
		logger.Println(strings.TrimSpace(longHelp))
		logger.Println()
		if hasFlags {
			logger.Println("Flags:")
			logger.Println()
			logger.Println(flagBlock.String())
		}
	}
}

func parseArgs(args []string) (cmdName string, printCmdUsage bool, exit bool) {
	isHelpArg := func() bool {
		return strings.Contains(strings.ToLower(args[1]), "help") || strings.ToLower(args[1]) == "-h"
	}
	switch len(args) {
	case 0, 1:
		exit = true
	case 2:
		if isHelpArg() {
			exit = true
		} else {
			cmdName = args[1]
		}
	default:
		if isHelpArg() {
			cmdName = args[2]
			printCmdUsage = true
		} else {
			cmdName = args[1]
		}
	}
	return cmdName, printCmdUsage, exit
}
