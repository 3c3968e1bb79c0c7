package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/shim"
)

const setupShortHelp = `Bootstrap KOPI_HOME`
const setupLongHelp = `
Create KOPI_HOME's directory layout (jdks/, jres/, cache/, shims/, locks/),
write a default config.toml if absent, and print the PATH line to add to
the shell profile.
`

type setupCommand struct{}

func (c *setupCommand) Name() string              { return "setup" }
func (c *setupCommand) Args() string              { return "" }
func (c *setupCommand) ShortHelp() string         { return setupShortHelp }
func (c *setupCommand) LongHelp() string          { return setupLongHelp }
func (c *setupCommand) Hidden() bool              { return false }
func (c *setupCommand) Register(fs *flag.FlagSet) {}

func (c *setupCommand) Run(ctx *Ctx, args []string) error {
	for _, dir := range []string{"jdks", "jres", "cache", shim.ShimsDir, "locks"} {
		if err := os.MkdirAll(filepath.Join(ctx.Home, dir), 0o755); err != nil {
			return err
		}
	}

	path := config.Path(ctx.Home)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(ctx.Home, config.Default()); err != nil {
			return err
		}
	}

	fmt.Printf("KOPI_HOME ready at %s\n", ctx.Home)
	fmt.Printf("Add this to your shell profile:\n\n    export PATH=\"%s:$PATH\"\n", filepath.Join(ctx.Home, shim.ShimsDir))
	return nil
}
