package main

import (
	"flag"
	"fmt"

	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/version"
)

const listShortHelp = `List installed JDKs and JREs`
const listLongHelp = `
List every installed JDK and JRE under KOPI_HOME, per spec.md §4.5's
enumeration.
`

type listCommand struct{}

func (c *listCommand) Name() string              { return "list" }
func (c *listCommand) Args() string              { return "" }
func (c *listCommand) ShortHelp() string         { return listShortHelp }
func (c *listCommand) LongHelp() string          { return listLongHelp }
func (c *listCommand) Hidden() bool              { return false }
func (c *listCommand) Register(fs *flag.FlagSet) {}

func (c *listCommand) Run(ctx *Ctx, args []string) error {
	any := false
	for _, kind := range []version.PackageType{version.Jdk, version.Jre} {
		store := storage.NewStore(ctx.Home, kind)
		installed, err := store.List()
		if err != nil {
			return err
		}
		for _, j := range installed {
			any = true
			fmt.Printf("%s\t%s-%s\t%s\n", kind, j.Distribution, j.DistributionVersion, j.Path)
		}
	}
	if !any {
		fmt.Println("no JDKs installed")
	}
	return nil
}
