package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kopi-vm/kopi/internal/metadata"
	"github.com/kopi-vm/kopi/internal/orchestrate"
)

const cacheShortHelp = `Manage the metadata cache`
const cacheLongHelp = `
kopi cache refresh   - force-refresh cache/metadata.json (spec.md §4.9)
kopi cache search <dist> - list cached packages for a distribution
kopi cache info      - show cache age and package count
kopi cache clear     - delete the cache file
`

type cacheCommand struct{}

func (c *cacheCommand) Name() string              { return "cache" }
func (c *cacheCommand) Args() string              { return "<refresh|search|info|clear> [args]" }
func (c *cacheCommand) ShortHelp() string         { return cacheShortHelp }
func (c *cacheCommand) LongHelp() string          { return cacheLongHelp }
func (c *cacheCommand) Hidden() bool              { return false }
func (c *cacheCommand) Register(fs *flag.FlagSet) {}

func (c *cacheCommand) Run(ctx *Ctx, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: kopi cache <refresh|search|info|clear>")
	}

	switch args[0] {
	case "refresh":
		provider := buildProvider()
		doc, err := orchestrate.RefreshCache(ctx.Home, ctx.Cfg, ctx.Controller, provider, foojaySourceID)
		if err != nil {
			return err
		}
		fmt.Printf("refreshed: %d packages\n", len(doc.Packages))
		return nil

	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: kopi cache search <distribution>")
		}
		cache := metadata.NewCache(ctx.Home)
		doc, ok, err := cache.Load()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("cache is empty; run `kopi cache refresh`")
			return nil
		}
		for _, p := range doc.Packages {
			if p.Distribution == args[1] {
				fmt.Printf("%s-%s\t%s/%s\n", p.Distribution, p.JavaVersion, p.OS, p.Arch)
			}
		}
		return nil

	case "info":
		cache := metadata.NewCache(ctx.Home)
		doc, ok, err := cache.Load()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no cache yet")
			return nil
		}
		fmt.Printf("source: %s\ngenerated: %s\npackages: %d\n", doc.Source, doc.GeneratedAt, len(doc.Packages))
		return nil

	case "clear":
		err := os.Remove(cachePath(ctx.Home))
		if err != nil && os.IsNotExist(err) {
			return nil
		}
		return err

	default:
		return fmt.Errorf("unknown cache subcommand %q", args[0])
	}
}

func cachePath(home string) string {
	return filepath.Join(home, "cache", metadata.FileName)
}
