package main

import (
	"flag"
	"fmt"

	"github.com/kopi-vm/kopi/internal/version"
)

const shellShortHelp = `Print KOPI_JAVA_VERSION export for a session override`
const shellLongHelp = `
Print an "export KOPI_JAVA_VERSION=<coordinate>" line for the given
coordinate; with no argument it prints an empty value, which clears the
session override. A
process cannot mutate its parent shell's environment directly, so (like
jenv's and rbenv's "shell" subcommands) this is meant to be eval'd:
eval "$(kopi shell 21)".
`

type shellCommand struct{}

func (c *shellCommand) Name() string              { return "shell" }
func (c *shellCommand) Args() string              { return "[<coordinate>]" }
func (c *shellCommand) ShortHelp() string         { return shellShortHelp }
func (c *shellCommand) LongHelp() string          { return shellLongHelp }
func (c *shellCommand) Hidden() bool              { return false }
func (c *shellCommand) Register(fs *flag.FlagSet) {}

func (c *shellCommand) Run(ctx *Ctx, args []string) error {
	if len(args) == 0 {
		fmt.Printf("export %s=%q\n", "KOPI_JAVA_VERSION", "")
		return nil
	}
	req, err := version.ParseRequest(args[0])
	if err != nil {
		return err
	}
	if req.Distribution == "" {
		req.Distribution = ctx.Cfg.DefaultDistribution
	}
	fmt.Printf("export %s=%q\n", "KOPI_JAVA_VERSION", req.Raw())
	return nil
}
