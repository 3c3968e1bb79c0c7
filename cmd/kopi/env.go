package main

import (
	"flag"
	"fmt"
	"runtime"

	"github.com/kopi-vm/kopi/internal/resolve"
	"github.com/kopi-vm/kopi/internal/shim"
	"github.com/kopi-vm/kopi/internal/storage"
)

const envShortHelp = `Print JAVA_HOME export for the resolved version`
const envLongHelp = `
Resolve the current version and print a shell "export JAVA_HOME=..." line
suitable for eval "$(kopi env)". Use -shell to pick the syntax (bash, zsh,
fish, powershell); defaults to bash/zsh syntax on Unix and PowerShell on
Windows.
`

type envCommand struct {
	shellName string
}

func (c *envCommand) Name() string      { return "env" }
func (c *envCommand) Args() string      { return "" }
func (c *envCommand) ShortHelp() string { return envShortHelp }
func (c *envCommand) LongHelp() string  { return envLongHelp }
func (c *envCommand) Hidden() bool      { return false }

func (c *envCommand) Register(fs *flag.FlagSet) {
	def := "bash"
	if runtime.GOOS == "windows" {
		def = "powershell"
	}
	fs.StringVar(&c.shellName, "shell", def, "shell syntax: bash, zsh, fish, powershell")
}

func (c *envCommand) Run(ctx *Ctx, args []string) error {
	req, _, err := resolve.Resolve(ctx.Cwd, ctx.Home, ctx.Cfg)
	if err != nil {
		return err
	}
	store := storage.NewStore(ctx.Home, req.PackageType)
	jdk, err := shim.Select(store, req)
	if err != nil {
		return err
	}
	home, err := jdk.JavaHome()
	if err != nil {
		return err
	}

	switch c.shellName {
	case "fish":
		fmt.Printf("set -gx JAVA_HOME %q\n", home)
	case "powershell":
		fmt.Printf("$env:JAVA_HOME = %q\n", home)
	default:
		fmt.Printf("export JAVA_HOME=%q\n", home)
	}
	return nil
}
