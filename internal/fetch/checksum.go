package fetch

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

// newHash picks the hash.Hash for algorithm, one of sha1/sha256/sha512/md5
// per spec.md §3/§6/§4.6 — the exact set the package record's checksum_type
// names, streamed the way golang-dep's hash.go streams sha256 over its
// manifest inputs.
func newHash(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, errors.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}

// VerifyChecksum streams path through the named algorithm and compares
// against the expected hex digest (case-insensitive). On mismatch, the
// partial file is deleted and ChecksumMismatch is returned, per spec.md
// §4.6.
func VerifyChecksum(path, algorithm, expectedHex string) error {
	h, err := newHash(algorithm)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return errors.Wrapf(err, "hashing %s", path)
	}

	got := hex.EncodeToString(h.Sum(nil))
	want := strings.ToLower(expectedHex)
	if !strings.EqualFold(got, want) {
		os.Remove(path)
		return &kopierr.ChecksumMismatch{Algo: algorithm, Expected: want, Actual: got}
	}
	return nil
}
