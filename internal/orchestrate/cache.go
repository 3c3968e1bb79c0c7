package orchestrate

import (
	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/lock"
	"github.com/kopi-vm/kopi/internal/metadata"
)

// RefreshCache implements spec.md §4.9's cache-refresh flow: acquire the
// cache-writer lock, run the provider, write durably, release. Readers
// (metadata.Cache.Load) proceed concurrently throughout since they never
// see a partially-written document.
func RefreshCache(home string, cfg config.Config, controller *lock.Controller, provider *metadata.Provider, sourceID string) (metadata.Document, error) {
	timeout, err := cfg.Locking.Duration()
	if err != nil {
		return metadata.Document{}, err
	}
	cache := metadata.NewCache(home)
	return metadata.Refresh(controller, timeout, cache, provider, sourceID)
}
