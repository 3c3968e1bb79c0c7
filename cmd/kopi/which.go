package main

import (
	"flag"
	"fmt"

	"github.com/kopi-vm/kopi/internal/resolve"
	"github.com/kopi-vm/kopi/internal/shim"
	"github.com/kopi-vm/kopi/internal/storage"
)

const whichShortHelp = `Print the resolved path for a tool`
const whichLongHelp = `
Resolve the current version (as the shim would) and print the absolute
path to <tool> (default "java") inside the matching installation.
`

type whichCommand struct{}

func (c *whichCommand) Name() string              { return "which" }
func (c *whichCommand) Args() string              { return "[<tool>]" }
func (c *whichCommand) ShortHelp() string         { return whichShortHelp }
func (c *whichCommand) LongHelp() string          { return whichLongHelp }
func (c *whichCommand) Hidden() bool              { return false }
func (c *whichCommand) Register(fs *flag.FlagSet) {}

func (c *whichCommand) Run(ctx *Ctx, args []string) error {
	tool := "java"
	if len(args) > 0 {
		tool = args[0]
	}

	req, _, err := resolve.Resolve(ctx.Cwd, ctx.Home, ctx.Cfg)
	if err != nil {
		return err
	}

	store := storage.NewStore(ctx.Home, req.PackageType)
	jdk, err := shim.Select(store, req)
	if err != nil {
		return err
	}

	path, err := shim.ToolExecutable(jdk, tool)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
