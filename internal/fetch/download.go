// Package fetch implements component C6: streaming resumable download with
// checksum verification, tar/zip extraction with a path-traversal guard,
// and JDK-root layout detection (delegated to internal/storage).
//
// The checksum streaming pattern is grounded on golang-dep's hash.go, which
// feeds a crypto hash.Hash with Write calls rather than buffering a whole
// payload before hashing; download/extraction themselves have no direct
// golang-dep analog (GOPATH fetches go through `go get`, not an HTTP
// client), so they follow the teacher's general idiom of wrapping every
// syscall/library error with github.com/pkg/errors and returning early.
package fetch

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

// Progress is reported byte-by-byte with coalescing left to the caller
// (e.g. only rendering every N calls or every tick), per spec.md §4.6.
type Progress struct {
	Downloaded int64
	Total      int64 // 0 when the server didn't report Content-Length
}

// ProgressFunc receives Progress updates during Download.
type ProgressFunc func(Progress)

// Downloader performs resumable, retried downloads. HTTPS certificate
// validation is always on because retryablehttp builds on net/http's
// default transport, which never skips verification unless explicitly
// configured to (spec.md §4.6 requires it stay on, so nothing here ever
// touches tls.Config.InsecureSkipVerify).
type Downloader struct {
	client *retryablehttp.Client
}

// NewDownloader builds a Downloader with the same kind of retry policy as
// the metadata HTTP source (exponential backoff on 5xx/429, honoring
// Retry-After, via github.com/hashicorp/go-retryablehttp), allowing up to 5
// retries.
func NewDownloader() *Downloader {
	client := retryablehttp.NewClient()
	client.RetryMax = 5
	client.Logger = nil
	return &Downloader{client: client}
}

// Download streams url into destDir/filename. When a "<filename>.part"
// already exists it sends a Range request for the remaining bytes: a 206
// reply is appended to the partial file, and a 200 reply restarts it from
// zero (per spec.md §4.6). The Accept-Ranges header itself is not
// inspected. Returns the completed file's path.
func (d *Downloader) Download(url, destDir, filename string, onProgress ProgressFunc) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating %s", destDir)
	}
	partPath := filepath.Join(destDir, filename+".part")
	finalPath := filepath.Join(destDir, filename)

	var resumeFrom int64
	if info, err := os.Stat(partPath); err == nil {
		resumeFrom = info.Size()
	}

	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrapf(err, "building request for %s", url)
	}
	if resumeFrom > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(resumeFrom, 10)+"-")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &kopierr.NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	var out *os.File
	var alreadyWritten int64
	switch resp.StatusCode {
	case http.StatusPartialContent:
		out, err = os.OpenFile(partPath, os.O_APPEND|os.O_WRONLY, 0o644)
		alreadyWritten = resumeFrom
	case http.StatusOK:
		out, err = os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	default:
		return "", &kopierr.HTTPError{Status: resp.StatusCode, URL: url}
	}
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", partPath)
	}
	defer out.Close()

	total := alreadyWritten + resp.ContentLength
	if resp.ContentLength <= 0 {
		total = 0
	}

	counter := &countingWriter{downloaded: alreadyWritten, total: total, onProgress: onProgress}
	if _, err := io.Copy(io.MultiWriter(out, counter), resp.Body); err != nil {
		return "", &kopierr.NetworkError{Cause: err}
	}

	if err := out.Close(); err != nil {
		return "", errors.Wrapf(err, "closing %s", partPath)
	}
	if err := os.Rename(partPath, finalPath); err != nil {
		return "", errors.Wrapf(err, "renaming %s", partPath)
	}
	return finalPath, nil
}

type countingWriter struct {
	downloaded int64
	total      int64
	onProgress ProgressFunc
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.downloaded += int64(len(p))
	if c.onProgress != nil {
		c.onProgress(Progress{Downloaded: c.downloaded, Total: c.total})
	}
	return len(p), nil
}
