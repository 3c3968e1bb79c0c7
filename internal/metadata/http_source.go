package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

// foojayEnvelope mirrors the "{\"result\": [...]}" wrapper spec.md §4.4
// names for the pinned v3.0 foojay-style API.
type foojayEnvelope struct {
	Result []foojayPackage `json:"result"`
}

type foojayPackage struct {
	Distribution        string `json:"distribution"`
	JavaVersion         string `json:"java_version"`
	DistributionVersion string `json:"distribution_version"`
	PackageType         string `json:"package_type"`
	OperatingSystem     string `json:"operating_system"`
	Architecture        string `json:"architecture"`
	LibCType            string `json:"lib_c_type"`
	JavaFXBundled       bool   `json:"javafx_bundled"`
	Links               struct {
		PkgDownloadRedirect string `json:"pkg_download_redirect"`
	} `json:"links"`
	Checksum      string `json:"checksum"`
	ChecksumType  string `json:"checksum_type"`
	Size          int64  `json:"size"`
	TermOfSupport string `json:"term_of_support"` // "lts" | "sts"
	ReleaseStatus string `json:"release_status"`  // "ga" | "ea"
}

func (p foojayPackage) toPackage() Package {
	distVersion := p.DistributionVersion
	if distVersion == "" {
		distVersion = p.JavaVersion
	}
	return Package{
		Distribution:        p.Distribution,
		JavaVersion:         p.JavaVersion,
		DistributionVersion: distVersion,
		PackageType:         p.PackageType,
		OS:                  p.OperatingSystem,
		Arch:                p.Architecture,
		LibCType:            p.LibCType,
		JavaFXBundled:       p.JavaFXBundled,
		DownloadURL:         p.Links.PkgDownloadRedirect,
		Checksum:            p.Checksum,
		ChecksumType:        p.ChecksumType,
		SizeBytes:           p.Size,
		LTS:                 p.TermOfSupport == "lts",
		GaOrEa:              p.ReleaseStatus,
		IsComplete:          p.Links.PkgDownloadRedirect != "" && p.Checksum != "",
	}
}

// httpSource queries a foojay-style JSON API with one request per listing
// (result pages beyond the first are not requested), retrying 5xx/429
// with exponential backoff and honoring Retry-After — the exact behavior
// github.com/hashicorp/go-retryablehttp's default policy implements, which
// is why Kopi reaches for it here instead of a bare net/http.Client
// (grounded on coreos-coreos-assembler's tools/ vendoring of the same
// library for its own retrying API calls).
type httpSource struct {
	baseURL string
	client  *retryablehttp.Client
}

// NewHTTPSource builds a Source against baseURL (the discovery API root).
func NewHTTPSource(baseURL string) Source {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.Logger = nil // applog wraps logrus; retryablehttp's own chatter is noise at default verbosity
	return &httpSource{baseURL: baseURL, client: client}
}

func (s *httpSource) ID() string { return "http:" + s.baseURL }

func (s *httpSource) IsAvailable() bool {
	resp, err := s.client.Head(s.baseURL)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (s *httpSource) LastUpdated() (time.Time, error) {
	resp, err := s.client.Head(s.baseURL)
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

func (s *httpSource) FetchAll() ([]Package, error) {
	return s.fetch(s.baseURL + "/packages")
}

func (s *httpSource) FetchDistribution(distribution string) ([]Package, error) {
	return s.fetch(fmt.Sprintf("%s/packages?distribution=%s", s.baseURL, distribution))
}

func (s *httpSource) fetch(url string) ([]Package, error) {
	resp, err := s.client.Get(url)
	if err != nil {
		return nil, &kopierr.NetworkError{Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &kopierr.HTTPError{Status: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &kopierr.NetworkError{Cause: err}
	}

	var env foojayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrapf(err, "decoding response from %s", url)
	}

	out := make([]Package, 0, len(env.Result))
	for _, p := range env.Result {
		out = append(out, p.toPackage())
	}
	return out, nil
}

// EnsureComplete issues the per-package detail fetch spec.md §4.4 calls for
// when a listing entry lacks a download URL or checksum.
func (s *httpSource) EnsureComplete(pkg Package) (Package, error) {
	if pkg.IsComplete {
		return pkg, nil
	}
	url := fmt.Sprintf("%s/packages/%s/%s/%s/%s", s.baseURL, pkg.Distribution, pkg.JavaVersion, pkg.OS, pkg.Arch)
	resp, err := s.client.Get(url)
	if err != nil {
		return pkg, &kopierr.NetworkError{Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return pkg, &kopierr.HTTPError{Status: resp.StatusCode, URL: url}
	}

	var detail struct {
		Result []foojayPackage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return pkg, errors.Wrapf(err, "decoding detail response from %s", url)
	}
	if len(detail.Result) == 0 {
		return pkg, errors.Errorf("no detail returned for %s", url)
	}
	return detail.Result[0].toPackage(), nil
}
