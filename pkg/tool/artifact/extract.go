package artifact

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	execdriver "toolsmith/pkg/driver/exec"
)

// ExtractorFor picks an ExtractFunc from the archive file name.
func ExtractorFor(name string) ExtractFunc {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return ExtractTarXz
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return ExtractTarGz
	case strings.HasSuffix(name, ".zip"):
		return ExtractZip
	case strings.HasSuffix(name, ".exe"), strings.HasSuffix(name, ".7z"):
		return Extract7z
	}
	return nil
}

// ExtractTarXz unpacks a .tar.xz archive.
func ExtractTarXz(ctx context.Context, archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to open xz stream: %w", err)
	}
	return untar(ctx, xzr, dest)
}

// ExtractTarGz unpacks a .tar.gz archive.
func ExtractTarGz(ctx context.Context, archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gzr.Close()
	return untar(ctx, gzr, dest)
}

// Extract7z unpacks NSIS installers and 7z archives with the 7z binary.
func Extract7z(ctx context.Context, archive, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	out, err := execdriver.DefaultRunner.CombinedOutput(ctx, "7z", "x", archive, "-o"+dest, "-y")
	if err != nil {
		return fmt.Errorf("7z extraction failed: %w\n%s", err, out)
	}
	return nil
}

// ExtractZip unpacks a .zip archive.
func ExtractZip(ctx context.Context, archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		fpath, err := within(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeFile(fpath, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func untar(ctx context.Context, r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := within(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := writeFile(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			// clang++ and friends are shipped as symlinks to clang.
			if filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("illegal absolute symlink: %s -> %s", header.Name, header.Linkname)
			}
			if _, err := within(dest, filepath.Join(filepath.Dir(header.Name), header.Linkname)); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return err
			}
		case tar.TypeLink:
			source, err := within(dest, header.Linkname)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Link(source, target); err != nil {
				return err
			}
		default:
			slog.Debug("skipping tar entry", "name", header.Name, "type", header.Typeflag)
		}
	}
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Restore the execute bit, which OpenFile filters through the umask.
	if mode&0111 != 0 {
		return os.Chmod(path, mode.Perm())
	}
	return nil
}

// within joins name onto dest and rejects paths escaping dest.
func within(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	clean := filepath.Clean(dest)
	if target != clean && !strings.HasPrefix(target, clean+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path: %s", name)
	}
	return target, nil
}
