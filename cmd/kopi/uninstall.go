package main

import (
	"flag"
	"fmt"

	"github.com/kopi-vm/kopi/internal/orchestrate"
	"github.com/kopi-vm/kopi/internal/version"
)

const uninstallShortHelp = `Remove an installed JDK`
const uninstallLongHelp = `
Remove one or more installed JDKs matching <coordinate>. If the pattern
matches more than one installation, -all is required to remove them all;
otherwise the command fails listing the candidates (spec.md §4.9).
`

type uninstallCommand struct {
	all bool
}

func (c *uninstallCommand) Name() string      { return "uninstall" }
func (c *uninstallCommand) Args() string      { return "<coordinate>" }
func (c *uninstallCommand) ShortHelp() string { return uninstallShortHelp }
func (c *uninstallCommand) LongHelp() string  { return uninstallLongHelp }
func (c *uninstallCommand) Hidden() bool      { return false }

func (c *uninstallCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.all, "all", false, "remove every installation matching the pattern")
}

func (c *uninstallCommand) Run(ctx *Ctx, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: kopi uninstall <coordinate>")
	}
	req, err := version.ParseRequest(args[0])
	if err != nil {
		return err
	}
	if req.Distribution == "" {
		req.Distribution = ctx.Cfg.DefaultDistribution
	}

	result, err := orchestrate.Uninstall(ctx.Home, req, c.all, ctx.Cfg, ctx.Controller)
	if err != nil {
		return err
	}

	for _, j := range result.Removed {
		fmt.Printf("Removed %s-%s\n", j.Distribution, j.DistributionVersion)
	}
	fmt.Printf("Freed %d bytes\n", result.BytesFreed)
	return nil
}
