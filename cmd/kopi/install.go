package main

import (
	"flag"
	"fmt"

	"github.com/kopi-vm/kopi/internal/fetch"
	"github.com/kopi-vm/kopi/internal/orchestrate"
	"github.com/kopi-vm/kopi/internal/resolve"
	"github.com/kopi-vm/kopi/internal/version"
)

const installShortHelp = `Install a JDK version`
const installLongHelp = `
Install a JDK matching the given coordinate, e.g. "21", "temurin@21",
"jre@corretto@17.0.9". With no argument, installs whatever the current
directory or global default resolves to (spec.md §4.8).
`

type installCommand struct {
	force bool
}

func (c *installCommand) Name() string      { return "install" }
func (c *installCommand) Args() string      { return "[<coordinate>]" }
func (c *installCommand) ShortHelp() string { return installShortHelp }
func (c *installCommand) LongHelp() string  { return installLongHelp }
func (c *installCommand) Hidden() bool      { return false }

func (c *installCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "reinstall even if already present")
}

func (c *installCommand) Run(ctx *Ctx, args []string) error {
	req, err := requestFromArgs(ctx, args)
	if err != nil {
		return err
	}

	provider := buildProvider()
	onProgress := func(p fetch.Progress) {
		if p.Total > 0 {
			ctx.Log.Infof("downloaded %d/%d bytes", p.Downloaded, p.Total)
		}
	}

	result, err := orchestrate.Install(ctx.Home, ctx.ShimPath, req, c.force, ctx.Cfg, ctx.Controller, provider, foojaySourceID, ctx.Log, onProgress)
	if err != nil {
		return err
	}

	if result.AlreadyExist {
		fmt.Printf("%s-%s already installed at %s (use -force to reinstall)\n", result.Jdk.Distribution, result.Jdk.DistributionVersion, result.Jdk.Path)
		return nil
	}

	fmt.Printf("Installed %s-%s to %s\n", result.Jdk.Distribution, result.Jdk.DistributionVersion, result.Jdk.Path)
	if len(result.ShimsAdded) > 0 {
		fmt.Printf("Added shims: %v\n", result.ShimsAdded)
	}
	return nil
}

// requestFromArgs parses an explicit coordinate argument, or falls back to
// C8 resolution (spec.md §4.8) when none was given.
func requestFromArgs(ctx *Ctx, args []string) (*version.Request, error) {
	if len(args) > 0 {
		req, err := version.ParseRequest(args[0])
		if err != nil {
			return nil, err
		}
		if req.Distribution == "" {
			req.Distribution = ctx.Cfg.DefaultDistribution
		}
		return req, nil
	}
	req, _, err := resolve.Resolve(ctx.Cwd, ctx.Home, ctx.Cfg)
	return req, err
}
