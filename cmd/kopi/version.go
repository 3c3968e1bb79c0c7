package main

import (
	"flag"
	"fmt"
)

// Version is kopi's own release version, not a JDK version.
const Version = "0.1.0"

type versionCommand struct{}

func (c *versionCommand) Name() string      { return "version" }
func (c *versionCommand) Args() string      { return "" }
func (c *versionCommand) ShortHelp() string { return "Print kopi's own version" }
func (c *versionCommand) LongHelp() string  { return "Print kopi's own version and exit." }
func (c *versionCommand) Hidden() bool      { return false }
func (c *versionCommand) Register(*flag.FlagSet) {}

func (c *versionCommand) Run(ctx *Ctx, args []string) error {
	fmt.Println(Version)
	return nil
}
