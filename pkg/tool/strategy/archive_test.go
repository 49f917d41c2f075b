package strategy

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolsmith/pkg/driver"
	"toolsmith/pkg/driver/fetchurl"
	"toolsmith/pkg/platform"
	"toolsmith/pkg/tool/artifact"
)

type fakeLocator struct {
	base   string
	binDir string
	err    error
	calls  int
}

func (l *fakeLocator) Name() string { return "ninja" }

func (l *fakeLocator) Locate(ctx context.Context, p platform.Info, version string) (string, artifact.Descriptor, error) {
	l.calls++
	if l.err != nil {
		return "", artifact.Descriptor{}, l.err
	}
	binDir := l.binDir
	if binDir == "" {
		binDir = "bin"
	}
	return "1.12.1", artifact.Descriptor{
		URL:             l.base + "/ninja-1.12.1.tar.gz",
		ExtractedFolder: "ninja-1.12.1",
		BinDir:          binDir,
		Extract:         artifact.ExtractTarGz,
	}, nil
}

func ninjaArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	body := []byte("#!/bin/sh\necho ninja\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "ninja-1.12.1/bin/ninja", Mode: 0755, Size: int64(len(body)), Typeflag: tar.TypeReg}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func archiveServer(t *testing.T, payload []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/ninja-1.12.1.tar.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

var linuxReq = Request{Tool: "ninja", Version: "1.12", Platform: platform.Info{OS: platform.Linux, Arch: "amd64"}}

func TestArchiveInstallsAndReuses(t *testing.T) {
	srv, hits := archiveServer(t, ninjaArchive(t))
	toolsDir := t.TempDir()
	s := &Archive{Locator: &fakeLocator{base: srv.URL}, ToolsDir: toolsDir}

	out := s.Attempt(context.Background(), linuxReq)
	require.Equal(t, KindInstalled, out.Kind, "cause: %v", out.Cause)
	wantBin := filepath.Join(toolsDir, "ninja", "1.12.1", "ninja-1.12.1", "bin")
	assert.Equal(t, wantBin, out.BinDir)
	assert.Equal(t, "1.12.1", out.Version)
	assert.FileExists(t, filepath.Join(wantBin, "ninja"))
	assert.Equal(t, int32(1), hits.Load())

	again := s.Attempt(context.Background(), linuxReq)
	require.Equal(t, KindInstalled, again.Kind)
	assert.Equal(t, wantBin, again.BinDir)
	assert.Equal(t, int32(1), hits.Load(), "existing install is reused")

	entries, err := os.ReadDir(filepath.Join(toolsDir, "ninja"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestArchiveUnavailable(t *testing.T) {
	t.Run("empty version", func(t *testing.T) {
		loc := &fakeLocator{}
		s := &Archive{Locator: loc, ToolsDir: t.TempDir()}
		out := s.Attempt(context.Background(), Request{Tool: "ninja", Platform: linuxReq.Platform})
		assert.Equal(t, KindUnavailable, out.Kind)
		assert.Zero(t, loc.calls)
	})

	t.Run("unsupported target", func(t *testing.T) {
		loc := &fakeLocator{err: &artifact.UnsupportedTargetError{Tool: "ninja", Version: "1.12", OS: "linux", Arch: "riscv64"}}
		s := &Archive{Locator: loc, ToolsDir: t.TempDir()}
		out := s.Attempt(context.Background(), linuxReq)
		assert.Equal(t, KindUnavailable, out.Kind)
		assert.ErrorIs(t, out.Cause, artifact.ErrUnsupportedTarget)
		assert.ErrorIs(t, out.Cause, ErrUnavailable)
	})
}

func TestArchiveFailures(t *testing.T) {
	t.Run("download error", func(t *testing.T) {
		srv, _ := archiveServer(t, nil)
		toolsDir := t.TempDir()
		s := &Archive{Locator: &fakeLocator{base: srv.URL + "/missing"}, ToolsDir: toolsDir}
		out := s.Attempt(context.Background(), linuxReq)
		assert.Equal(t, KindFailed, out.Kind)
		assert.Contains(t, out.Cause.Error(), "404")
		assert.NoDirExists(t, filepath.Join(toolsDir, "ninja", "1.12.1"))
	})

	t.Run("archive without bin dir", func(t *testing.T) {
		srv, _ := archiveServer(t, ninjaArchive(t))
		s := &Archive{Locator: &fakeLocator{base: srv.URL, binDir: "libexec"}, ToolsDir: t.TempDir()}
		out := s.Attempt(context.Background(), linuxReq)
		assert.Equal(t, KindFailed, out.Kind)
		assert.Contains(t, out.Cause.Error(), "libexec")
	})
}

type fakeFetcher struct {
	payload []byte
	opts    fetchurl.FetchOptions
}

func (f *fakeFetcher) Fetch(ctx context.Context, opts fetchurl.FetchOptions) error {
	f.opts = opts
	_, err := io.Copy(opts.Out, bytes.NewReader(f.payload))
	return err
}

func TestArchiveVerifiesPinnedChecksum(t *testing.T) {
	srv, hits := archiveServer(t, nil)
	fetcher := &fakeFetcher{payload: ninjaArchive(t)}
	ctx := driver.With[fetchurl.Driver](context.Background(), fetcher)

	url := srv.URL + "/ninja-1.12.1.tar.gz"
	s := &Archive{
		Locator:   &fakeLocator{base: srv.URL},
		ToolsDir:  t.TempDir(),
		Checksums: map[string]string{url: "sha256:ABCDEF"},
	}
	out := s.Attempt(ctx, linuxReq)
	require.Equal(t, KindInstalled, out.Kind, "cause: %v", out.Cause)
	assert.Equal(t, []string{url}, fetcher.opts.URLs)
	assert.Equal(t, "sha256", fetcher.opts.Algo)
	assert.Equal(t, "abcdef", fetcher.opts.Hash)
	assert.Zero(t, hits.Load())
}

func TestArchiveFetchWritesWithoutClosing(t *testing.T) {
	payload := ninjaArchive(t)
	srv, _ := archiveServer(t, payload)
	url := srv.URL + "/ninja-1.12.1.tar.gz"

	tests := []struct {
		name      string
		ctx       context.Context
		checksums map[string]string
	}{
		{name: "direct download", ctx: context.Background()},
		{
			name:      "pinned checksum",
			ctx:       driver.With[fetchurl.Driver](context.Background(), &fakeFetcher{payload: payload}),
			checksums: map[string]string{url: "sha256:abcdef"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Archive{Checksums: tt.checksums}
			var out bytes.Buffer
			require.NoError(t, s.fetch(tt.ctx, artifact.Descriptor{URL: url}, &out))
			assert.Equal(t, payload, out.Bytes())

			// download owns the file and closes it exactly once.
			dest := filepath.Join(t.TempDir(), "ninja.tar.gz")
			require.NoError(t, s.download(tt.ctx, artifact.Descriptor{URL: url}, dest))
			got, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}

	t.Run("error is kept over close", func(t *testing.T) {
		s := &Archive{}
		dest := filepath.Join(t.TempDir(), "ninja.tar.gz")
		err := s.download(context.Background(), artifact.Descriptor{URL: srv.URL + "/missing"}, dest)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		require.NoError(t, os.Remove(dest))
	})
}
