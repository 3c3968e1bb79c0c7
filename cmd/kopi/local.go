package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kopi-vm/kopi/internal/version"
)

const localShortHelp = `Set or show the project-local version`
const localLongHelp = `
With an argument, writes "<cwd>/.kopi-version" (spec.md §4.8 step 2). With
no argument, prints it if present.
`

type localCommand struct{}

func (c *localCommand) Name() string              { return "local" }
func (c *localCommand) Args() string              { return "[<coordinate>]" }
func (c *localCommand) ShortHelp() string         { return localShortHelp }
func (c *localCommand) LongHelp() string          { return localLongHelp }
func (c *localCommand) Hidden() bool              { return false }
func (c *localCommand) Register(fs *flag.FlagSet) {}

func (c *localCommand) Run(ctx *Ctx, args []string) error {
	path := filepath.Join(ctx.Cwd, ".kopi-version")
	if len(args) == 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("no local version set")
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
	return os.WriteFile(path, []byte(req.Raw()+"\n"), 0o644)
}
