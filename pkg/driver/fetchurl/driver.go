package fetchurl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"toolsmith/pkg/driver"
)

// FetchOptions configures a download operation
type FetchOptions struct {
	// URLs to try downloading from (in order)
	URLs []string
	// Hash algorithm (e.g., "sha256", "sha512")
	Algo string
	// Expected hash value
	Hash string
	// Output destination
	Out io.Writer
}

// Driver provides hash-verified downloads
type Driver interface {
	// Fetch downloads a file with hash verification.
	// Tries URLs in order until one succeeds.
	Fetch(ctx context.Context, opts FetchOptions) error
}

// Fetch downloads through the selected driver.
func Fetch(ctx context.Context, opts FetchOptions) error {
	d, err := driver.Get[Driver](ctx)
	if err != nil {
		return err
	}
	return d.Fetch(ctx, opts)
}

// ParseChecksum splits an "algo:hex" checksum. A bare hex digest is taken as sha256.
func ParseChecksum(s string) (algo, hash string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", fmt.Errorf("empty checksum")
	}
	algo, hash, ok := strings.Cut(s, ":")
	if !ok {
		return "sha256", strings.ToLower(s), nil
	}
	switch algo = strings.ToLower(algo); algo {
	case "sha1", "sha256", "sha512":
		return algo, strings.ToLower(hash), nil
	}
	return "", "", fmt.Errorf("unsupported checksum algorithm %q", algo)
}
