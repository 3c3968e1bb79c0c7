package main

import (
	"flag"
	"fmt"

	"github.com/kopi-vm/kopi/internal/resolve"
)

const currentShortHelp = `Show the resolved version for this directory`
const currentLongHelp = `
Run C8 resolution (environment, project files, global default) and print
the resulting coordinate and where it came from.
`

type currentCommand struct{}

func (c *currentCommand) Name() string              { return "current" }
func (c *currentCommand) Args() string              { return "" }
func (c *currentCommand) ShortHelp() string         { return currentShortHelp }
func (c *currentCommand) LongHelp() string          { return currentLongHelp }
func (c *currentCommand) Hidden() bool              { return false }
func (c *currentCommand) Register(fs *flag.FlagSet) {}

func (c *currentCommand) Run(ctx *Ctx, args []string) error {
	req, src, err := resolve.Resolve(ctx.Cwd, ctx.Home, ctx.Cfg)
	if err != nil {
		return err
	}
	fmt.Printf("%s (from %s)\n", req.Raw(), src.Kind)
	return nil
}
