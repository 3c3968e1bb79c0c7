package orchestrate

import (
	"fmt"
	"sort"

	"github.com/kopi-vm/kopi/internal/config"
	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/lock"
	"github.com/kopi-vm/kopi/internal/storage"
	"github.com/kopi-vm/kopi/internal/version"
)

// UninstallResult reports what Uninstall removed.
type UninstallResult struct {
	Removed     []*storage.InstalledJdk
	BytesFreed  int64
}

// Uninstall implements spec.md §4.9's uninstall flow: req's pattern
// resolves to one or more InstalledJdks. Without all, more than one match
// fails with an explicit candidate list; with all, every match for the
// pattern's distribution is removed. Shims are never removed (they
// degrade gracefully to ToolNotFound per spec.md §4.7).
func Uninstall(home string, req *version.Request, all bool, cfg config.Config, controller *lock.Controller) (*UninstallResult, error) {
	store := storage.NewStore(home, req.PackageType)
	installed, err := store.List()
	if err != nil {
		return nil, err
	}

	var matches []*storage.InstalledJdk
	for _, j := range installed {
		if req.Distribution != "" && j.Distribution != req.Distribution {
			continue
		}
		v, err := version.Parse(j.DistributionVersion)
		if err != nil {
			continue
		}
		if req.Pattern.Matches(v) {
			matches = append(matches, j)
		}
	}

	if len(matches) == 0 {
		return nil, &kopierr.JdkNotInstalled{Spec: req.Raw()}
	}
	if len(matches) > 1 && !all {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = fmt.Sprintf("%s-%s", m.Distribution, m.DistributionVersion)
		}
		sort.Strings(names)
		return nil, &kopierr.AmbiguousJdk{Pattern: req.Raw(), Candidates: names, ForArguments: true}
	}

	lockTimeout, err := cfg.Locking.Duration()
	if err != nil {
		return nil, err
	}

	result := &UninstallResult{}
	for _, j := range matches {
		scope := lock.InstallScope(j.Distribution, installCoordinate(j.Distribution, j.DistributionVersion, req.PackageType).Slug())

		acq, err := controller.Acquire(scope, lock.Exclusive, lockTimeout)
		if err != nil {
			return result, err
		}

		freed, err := store.Remove(j.Distribution, j.DistributionVersion)
		releaseErr := acq.Release()
		if err != nil {
			return result, err
		}
		if releaseErr != nil {
			return result, releaseErr
		}

		result.Removed = append(result.Removed, j)
		result.BytesFreed += freed
	}
	return result, nil
}
