package main

import (
	"os"

	"github.com/kopi-vm/kopi/internal/metadata"
)

// foojaySourceID names the primary metadata source in cache documents and
// Provider.EnsureComplete lookups; it equals the ID() of the HTTP source
// that buildProvider constructs for defaultFoojayBaseURL.
const foojaySourceID = "http:" + defaultFoojayBaseURL

// buildProvider composes the metadata sources in priority order, per
// spec.md §4.4: the foojay-style HTTP API first, falling back to a local
// directory source when KOPI_METADATA_DIR is set (useful offline or in
// tests).
func buildProvider() *metadata.Provider {
	sources := []metadata.Source{metadata.NewHTTPSource(defaultFoojayBaseURL)}
	if dir := os.Getenv("KOPI_METADATA_DIR"); dir != "" {
		sources = append(sources, metadata.NewDirSource(dir))
	}
	return metadata.NewProvider(sources...)
}
