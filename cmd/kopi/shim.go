package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kopi-vm/kopi/internal/shim"
)

const shimShortHelp = `Manage tool shims`
const shimLongHelp = `
kopi shim list             - list existing shim entries
kopi shim add <tool>       - create a shim for <tool>
kopi shim remove <tool>    - remove a shim entry
kopi shim verify           - check every shim still points at this kopi-shim
`

type shimCommand struct{}

func (c *shimCommand) Name() string              { return "shim" }
func (c *shimCommand) Args() string              { return "<list|add|remove|verify> [args]" }
func (c *shimCommand) ShortHelp() string         { return shimShortHelp }
func (c *shimCommand) LongHelp() string          { return shimLongHelp }
func (c *shimCommand) Hidden() bool              { return false }
func (c *shimCommand) Register(fs *flag.FlagSet) {}

func (c *shimCommand) Run(ctx *Ctx, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: kopi shim <list|add|remove|verify>")
	}
	dir := filepath.Join(ctx.Home, shim.ShimsDir)

	switch args[0] {
	case "list":
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("no shims yet")
				return nil
			}
			return err
		}
		for _, e := range entries {
			fmt.Println(e.Name())
		}
		return nil

	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: kopi shim add <tool>")
		}
		return shim.EnsureShims(ctx.Home, ctx.ShimPath, args[1:])

	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("usage: kopi shim remove <tool>")
		}
		var firstErr error
		for _, tool := range args[1:] {
			if err := os.Remove(filepath.Join(dir, tool)); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr

	case "verify":
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("no shims yet")
				return nil
			}
			return err
		}
		for _, e := range entries {
			target := filepath.Join(dir, e.Name())
			resolved, err := filepath.EvalSymlinks(target)
			if err != nil {
				fmt.Printf("%s: broken (%v)\n", e.Name(), err)
				continue
			}
			status := "ok"
			if resolved != ctx.ShimPath {
				status = "stale (points at " + resolved + ")"
			}
			fmt.Printf("%s: %s\n", e.Name(), status)
		}
		return nil

	default:
		return fmt.Errorf("unknown shim subcommand %q", args[0])
	}
}
