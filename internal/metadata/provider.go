package metadata

import (
	"github.com/pkg/errors"
)

// Provider composes Sources in configured priority order. Per spec.md
// §4.4, the first available source wins for each method, falling through
// to the next on a network or parse error — mirroring golang-dep's
// SourceManager, which tries local caches before hitting the network for
// project metadata.
type Provider struct {
	sources []Source
}

// NewProvider builds a Provider trying sources in order.
func NewProvider(sources ...Source) *Provider {
	return &Provider{sources: sources}
}

func (p *Provider) FetchAll() ([]Package, error) {
	var lastErr error
	for _, s := range p.sources {
		if !s.IsAvailable() {
			continue
		}
		pkgs, err := s.FetchAll()
		if err == nil {
			return pkgs, nil
		}
		lastErr = err
	}
	return nil, firstOrAllUnavailable(lastErr)
}

func (p *Provider) FetchDistribution(distribution string) ([]Package, error) {
	var lastErr error
	for _, s := range p.sources {
		if !s.IsAvailable() {
			continue
		}
		pkgs, err := s.FetchDistribution(distribution)
		if err == nil {
			return pkgs, nil
		}
		lastErr = err
	}
	return nil, firstOrAllUnavailable(lastErr)
}

// EnsureComplete finds pkg's originating source by ID and delegates to it,
// returning whatever that source returns. When no configured source has
// that ID, it returns pkg unchanged together with an error.
func (p *Provider) EnsureComplete(sourceID string, pkg Package) (Package, error) {
	for _, s := range p.sources {
		if s.ID() == sourceID {
			return s.EnsureComplete(pkg)
		}
	}
	return pkg, errors.Errorf("unknown metadata source %q", sourceID)
}

func firstOrAllUnavailable(lastErr error) error {
	if lastErr != nil {
		return errors.Wrap(lastErr, "all metadata sources failed")
	}
	return errors.New("no metadata source is available")
}
