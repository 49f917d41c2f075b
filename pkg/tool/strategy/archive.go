package strategy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"

	"toolsmith/pkg/driver/fetchurl"
	"toolsmith/pkg/driver/httpclient"
	"toolsmith/pkg/tool/artifact"
)

const lockRetryDelay = 500 * time.Millisecond

// Archive downloads a prebuilt release archive and unpacks it under ToolsDir.
type Archive struct {
	Locator  artifact.Locator
	ToolsDir string
	// Checksums pins archive URLs to "algo:hex" digests.
	Checksums map[string]string
	// Progress receives the download progress bar. Nil hides it.
	Progress io.Writer
}

func (s *Archive) Name() string { return "archive" }

func (s *Archive) Attempt(ctx context.Context, req Request) Outcome {
	if req.Version == "" {
		return Unavailable(errors.New("archive download needs a concrete version"))
	}
	specific, d, err := s.Locator.Locate(ctx, req.Target(), req.Version)
	if errors.Is(err, artifact.ErrUnsupportedTarget) {
		return Unavailable(err)
	}
	if err != nil {
		return Failed(err)
	}

	installDir := filepath.Join(s.ToolsDir, req.Tool, specific)
	binDir := filepath.Join(installDir, d.ExtractedFolder, d.BinDir)
	if populated(binDir) {
		slog.Debug("reusing extracted archive", "tool", req.Tool, "version", specific, "dir", installDir)
		return Installed(binDir, specific)
	}

	if err := os.MkdirAll(filepath.Dir(installDir), 0755); err != nil {
		return Failed(err)
	}
	lock := flock.New(installDir + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Failed(fmt.Errorf("failed to lock %s: %w", installDir, err))
	}
	if !locked {
		return Failed(fmt.Errorf("%s is locked by another process", installDir))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Debug("failed to unlock", "path", installDir, "error", err)
		}
	}()

	// Another process may have finished while we waited for the lock.
	if populated(binDir) {
		return Installed(binDir, specific)
	}
	if err := s.install(ctx, d, installDir); err != nil {
		return Failed(err)
	}
	if !populated(binDir) {
		return Failed(fmt.Errorf("archive %s has no %s", d.URL, filepath.Join(d.ExtractedFolder, d.BinDir)))
	}
	return Installed(binDir, specific)
}

func (s *Archive) install(ctx context.Context, d artifact.Descriptor, installDir string) error {
	tmpDir, err := os.MkdirTemp(filepath.Dir(installDir), filepath.Base(installDir)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	archivePath := filepath.Join(tmpDir, path.Base(d.URL))
	if err := s.download(ctx, d, archivePath); err != nil {
		return fmt.Errorf("download of %s failed: %w", d.URL, err)
	}

	extracted := filepath.Join(tmpDir, "content")
	slog.Debug("extracting", "file", archivePath, "dest", installDir)
	if err := d.Extract(ctx, archivePath, extracted); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if err := os.RemoveAll(installDir); err != nil {
		return err
	}
	return os.Rename(extracted, installDir)
}

func (s *Archive) download(ctx context.Context, d artifact.Descriptor, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	err = s.fetch(ctx, d, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// fetch streams the archive of d into out. Pinned checksums go through fetchurl.
func (s *Archive) fetch(ctx context.Context, d artifact.Descriptor, out io.Writer) error {
	checksum := d.Checksum
	if checksum == "" {
		checksum = s.Checksums[d.URL]
	}
	if checksum != "" {
		algo, hash, err := fetchurl.ParseChecksum(checksum)
		if err != nil {
			return err
		}
		slog.Debug("downloading with fetchurl", "url", d.URL, "algo", algo)
		return fetchurl.Fetch(ctx, fetchurl.FetchOptions{URLs: []string{d.URL}, Algo: algo, Hash: hash, Out: out})
	}

	slog.Debug("downloading directly", "url", d.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return err
	}
	resp, err := httpclient.Client(ctx).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	progress := s.Progress
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions64(
		resp.ContentLength,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetDescription(path.Base(d.URL)),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionSetVisibility(s.Progress != nil),
	)
	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		return err
	}
	_ = bar.Finish()
	return nil
}

func populated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
