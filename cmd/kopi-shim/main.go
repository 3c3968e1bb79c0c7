// Command kopi-shim is the thin per-tool dispatcher installed under
// <KOPI_HOME>/shims/: invoked as `java`, `javac`, etc., it resolves the
// active JDK version and execs the real tool in its place (spec.md §4.7).
//
// Kept deliberately minimal — no subcommands, no flag parsing beyond what
// the real tool itself receives — to stay inside the component's
// size/startup budget; see internal/shim for the actual control flow.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kopi-vm/kopi/internal/applog"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/shim"
)

func main() {
	home := os.Getenv("KOPI_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "kopi-shim: cannot determine home directory:", err)
			os.Exit(1)
		}
		home = filepath.Join(userHome, ".kopi")
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "kopi-shim:", err)
		os.Exit(1)
	}

	log := applog.New()
	log.ApplyEnvOverride()

	if err := shim.Run(home, cwd, os.Args, log); err != nil {
		fmt.Fprintln(os.Stderr, "kopi-shim:", err)
		for _, hint := range kopierr.Hint(err) {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(kopierr.ExitCode(err))
	}
}
