package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/kopierr"
	"github.com/kopi-vm/kopi/internal/platform"
)

// indexEntry is one row of index.json, per spec.md §4.4's static web index
// format.
type indexEntry struct {
	Path                string   `json:"path"`
	Distribution        string   `json:"distribution"`
	JavaVersion         string   `json:"java_version"`
	DistributionVersion string   `json:"distribution_version,omitempty"`
	PackageType         string   `json:"package_type"`
	Architectures       []string `json:"architectures"`
	OperatingSystems    []string `json:"operating_systems"`
	LibCTypes           []string `json:"lib_c_types,omitempty"`
	Size                int64    `json:"size"`
	Checksum            string   `json:"checksum"`
	ChecksumType        string   `json:"checksum_type"`
	LTS                 bool     `json:"lts,omitempty"`
	GaOrEa              string   `json:"ga_or_ea,omitempty"`
}

func matchesCurrentPlatform(e indexEntry) bool {
	if !contains(e.OperatingSystems, platform.OS()) {
		return false
	}
	if !contains(e.Architectures, platform.Arch()) {
		return false
	}
	if len(e.LibCTypes) > 0 && !contains(e.LibCTypes, platform.Libc()) {
		return false
	}
	return true
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func (e indexEntry) toPackage(baseURL string) Package {
	distVersion := e.DistributionVersion
	if distVersion == "" {
		distVersion = e.JavaVersion
	}
	return Package{
		Distribution:        e.Distribution,
		JavaVersion:         e.JavaVersion,
		DistributionVersion: distVersion,
		PackageType:         e.PackageType,
		OS:                  platform.OS(),
		Arch:                platform.Arch(),
		LibCType:            platform.Libc(),
		DownloadURL:         joinURL(baseURL, e.Path),
		Checksum:            e.Checksum,
		ChecksumType:        e.ChecksumType,
		SizeBytes:           e.Size,
		LTS:                 e.LTS,
		GaOrEa:              e.GaOrEa,
		IsComplete:          true,
	}
}

func joinURL(base, rel string) string {
	if base == "" {
		return rel
	}
	return fmt.Sprintf("%s/%s", trimTrailingSlash(base), rel)
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// webIndexSource consumes an index.json at a base URL, pre-filtering to
// the current platform before anything is downloaded — spec.md §4.4's
// "Static web index" source.
type webIndexSource struct {
	baseURL string
	client  *retryablehttp.Client
}

// NewWebIndexSource builds a Source against an index.json hosted at baseURL.
func NewWebIndexSource(baseURL string) Source {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.Logger = nil
	return &webIndexSource{baseURL: baseURL, client: client}
}

func (s *webIndexSource) ID() string { return "web-index:" + s.baseURL }

func (s *webIndexSource) indexURL() string { return joinURL(s.baseURL, "index.json") }

func (s *webIndexSource) IsAvailable() bool {
	resp, err := s.client.Head(s.indexURL())
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (s *webIndexSource) LastUpdated() (time.Time, error) {
	resp, err := s.client.Head(s.indexURL())
	if err != nil {
		return time.Time{}, &kopierr.NetworkError{Cause: err}
	}
	defer resp.Body.Close()
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			return t, nil
		}
	}
	return time.Now(), nil
}

func (s *webIndexSource) entries() ([]indexEntry, error) {
	resp, err := s.client.Get(s.indexURL())
	if err != nil {
		return nil, &kopierr.NetworkError{Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &kopierr.HTTPError{Status: resp.StatusCode, URL: s.indexURL()}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &kopierr.NetworkError{Cause: err}
	}
	var entries []indexEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", s.indexURL())
	}
	return entries, nil
}

func (s *webIndexSource) FetchAll() ([]Package, error) {
	entries, err := s.entries()
	if err != nil {
		return nil, err
	}
	var out []Package
	for _, e := range entries {
		if matchesCurrentPlatform(e) {
			out = append(out, e.toPackage(s.baseURL))
		}
	}
	return out, nil
}

func (s *webIndexSource) FetchDistribution(distribution string) ([]Package, error) {
	all, err := s.FetchAll()
	if err != nil {
		return nil, err
	}
	var out []Package
	for _, p := range all {
		if p.Distribution == distribution {
			out = append(out, p)
		}
	}
	return out, nil
}

// EnsureComplete is a no-op: web-index packages are complete by
// construction (spec.md §4.4).
func (s *webIndexSource) EnsureComplete(pkg Package) (Package, error) { return pkg, nil }

// dirSource reads the same index.json layout from a local directory
// instead of over HTTP, for spec.md §4.4's offline/air-gapped install path.
type dirSource struct {
	root string
}

// NewDirSource builds a Source reading an index.json under root.
func NewDirSource(root string) Source { return &dirSource{root: root} }

func (s *dirSource) ID() string { return "dir:" + s.root }

func (s *dirSource) indexPath() string { return filepath.Join(s.root, "index.json") }

func (s *dirSource) IsAvailable() bool {
	_, err := os.Stat(s.indexPath())
	return err == nil
}

func (s *dirSource) LastUpdated() (time.Time, error) {
	info, err := os.Stat(s.indexPath())
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "stat %s", s.indexPath())
	}
	return info.ModTime(), nil
}

func (s *dirSource) entries() ([]indexEntry, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.indexPath())
	}
	var entries []indexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", s.indexPath())
	}
	return entries, nil
}

func (s *dirSource) FetchAll() ([]Package, error) {
	entries, err := s.entries()
	if err != nil {
		return nil, err
	}
	var out []Package
	for _, e := range entries {
		if matchesCurrentPlatform(e) {
			out = append(out, e.toPackage("file://"+s.root))
		}
	}
	return out, nil
}

func (s *dirSource) FetchDistribution(distribution string) ([]Package, error) {
	all, err := s.FetchAll()
	if err != nil {
		return nil, err
	}
	var out []Package
	for _, p := range all {
		if p.Distribution == distribution {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *dirSource) EnsureComplete(pkg Package) (Package, error) { return pkg, nil }
