package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kopi-vm/kopi/internal/version"
)

const globalShortHelp = `Set or show the global default version`
const globalLongHelp = `
With an argument, writes <home>/version as the global default (spec.md
§4.8 step 3). With no argument, prints the current global default.
`

type globalCommand struct{}

func (c *globalCommand) Name() string              { return "global" }
func (c *globalCommand) Args() string              { return "[<coordinate>]" }
func (c *globalCommand) ShortHelp() string         { return globalShortHelp }
func (c *globalCommand) LongHelp() string          { return globalLongHelp }
func (c *globalCommand) Hidden() bool              { return false }
func (c *globalCommand) Register(fs *flag.FlagSet) {}

func (c *globalCommand) Run(ctx *Ctx, args []string) error {
	path := filepath.Join(ctx.Home, "version")
	if len(args) == 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("no global default set")
				return nil
			}
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	req, err := version.ParseRequest(args[0])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(ctx.Home, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(req.Raw()+"\n"), 0o644)
}
