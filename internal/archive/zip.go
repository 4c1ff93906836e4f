// Package archive packs a directory into a zip archive and unpacks it back,
// for the dexios pack/unpack subcommands. It is built directly on
// archive/zip; the path-safety checks below follow the same traversal
// guard as a tar extractor, adapted for zip's flat file list.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Pack walks dir and writes every regular file and directory entry under it,
// with paths relative to dir, into a zip archive written to w. Symlinks are
// stored as regular files containing their target, matching how dexios
// treats directory contents as opaque bytes rather than a second filesystem
// to fully reproduce.
func Pack(dir string, w io.Writer) error {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}

	zw := zip.NewWriter(w)
	defer zw.Close()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("zip header for %s: %w", relPath, err)
		}
		hdr.Name = relPath
		hdr.Method = zip.Deflate

		if info.IsDir() {
			hdr.Name += "/"
			_, err := zw.CreateHeader(hdr)
			return err
		}

		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("create zip entry %s: %w", relPath, err)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("read symlink %s: %w", path, err)
			}
			_, err = io.WriteString(dst, target)
			return err
		}

		src, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer src.Close()

		_, err = io.Copy(dst, src)
		return err
	})
}

// Unpack reads a zip archive of total size archiveSize from r and extracts
// it into destDir, creating destDir if necessary. Every entry name is
// NFC-normalized and checked against directory traversal before any path is
// touched on disk.
func Unpack(r io.ReaderAt, archiveSize int64, destDir string) error {
	destDir = filepath.Clean(destDir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	zr, err := zip.NewReader(r, archiveSize)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}

	for _, f := range zr.File {
		targetPath, err := sanitizeEntryPath(destDir, f.Name)
		if err != nil {
			return err
		}

		if strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", targetPath, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return fmt.Errorf("create parent directory: %w", err)
		}

		if err := extractEntry(f, targetPath); err != nil {
			return err
		}
	}

	return nil
}

func extractEntry(f *zip.File, targetPath string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create file %s: %w", targetPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write file %s: %w", targetPath, err)
	}
	return nil
}

// sanitizeEntryPath normalizes a zip entry name and confirms the resulting
// path stays within destDir, rejecting absolute paths and ".." components.
func sanitizeEntryPath(destDir, name string) (string, error) {
	name = norm.NFC.String(name)
	name = filepath.FromSlash(name)
	name = filepath.Clean(name)

	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute paths not allowed in archive: %s", name)
	}
	if name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("directory traversal not allowed: %s", name)
	}

	targetPath := filepath.Join(destDir, name)

	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("resolve destination: %w", err)
	}
	if absTarget != absDest && !strings.HasPrefix(absTarget, absDest+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes destination directory: %s", name)
	}

	return targetPath, nil
}
