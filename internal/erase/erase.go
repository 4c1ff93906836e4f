// Package erase implements best-effort secure deletion of a file:
// multiple random-data overwrite passes, a zero-length truncate, then
// unlink. None of this is a guarantee against recovery on flash media or
// copy-on-write filesystems — see the caveat in File's doc comment.
package erase

import (
	"crypto/rand"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/postalsys/dexios-go/internal/dexerrors"
)

// DefaultPasses is how many times a file's contents are overwritten with
// fresh random data before truncation and unlink, absent an explicit
// override from configuration or a CLI flag.
const DefaultPasses = 4

// Path erases path, which may be a regular file or, with recurse set, a
// directory. A symlink is skipped rather than followed, at any depth.
//
// If path is a directory and recurse is false, Path refuses rather than
// silently doing nothing: recursion into a directory tree is destructive
// enough to require an explicit opt-in.
func Path(path string, passes int, recurse bool) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", dexerrors.ErrIO, path, err)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return nil
	case info.Mode().IsRegular():
		return File(path, passes)
	case info.IsDir():
		if !recurse {
			return fmt.Errorf("%w: %s is a directory, recursion was not requested", dexerrors.ErrIO, path)
		}
		return eraseDir(path, passes)
	default:
		return nil
	}
}

// eraseDir walks root and erases every regular file it finds with the
// given pass count. Symlinks are skipped, not followed; directories
// themselves are left in place once their contents are gone.
func eraseDir(root string, passes int) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: walk %s: %v", dexerrors.ErrIO, p, err)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		return File(p, passes)
	})
}

// File overwrites path with `passes` rounds of random data sized to the
// file's current length, truncates it to zero, then removes it.
//
// This is a best-effort measure. On flash storage (SSD/eMMC/NVMe) the
// firmware's wear-leveling and block remapping mean a logical overwrite
// does not guarantee the physical NAND cells holding the old data are
// ever rewritten; on copy-on-write or log-structured filesystems a prior
// version of the file's blocks can persist in a snapshot or journal this
// function has no way to reach. Treat this as raising the cost of casual
// recovery, not as cryptographic erasure.
func File(path string, passes int) error {
	if passes <= 0 {
		passes = DefaultPasses
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", dexerrors.ErrIO, path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: stat %s: %v", dexerrors.ErrIO, path, err)
	}
	size := info.Size()

	for pass := 0; pass < passes; pass++ {
		if err := overwritePass(f, size); err != nil {
			f.Close()
			return err
		}
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return fmt.Errorf("%w: truncate %s: %v", dexerrors.ErrIO, path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: sync %s: %v", dexerrors.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", dexerrors.ErrIO, path, err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: remove %s: %v", dexerrors.ErrIO, path, err)
	}
	return nil
}

func overwritePass(f *os.File, size int64) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek: %v", dexerrors.ErrIO, err)
	}

	const chunkSize = 1 << 20
	chunk := make([]byte, chunkSize)

	var written int64
	for written < size {
		n := chunkSize
		if remaining := size - written; remaining < int64(n) {
			n = int(remaining)
		}
		if _, err := io.ReadFull(rand.Reader, chunk[:n]); err != nil {
			return fmt.Errorf("%w: generate overwrite data: %v", dexerrors.ErrIO, err)
		}
		if _, err := f.Write(chunk[:n]); err != nil {
			return fmt.Errorf("%w: overwrite pass: %v", dexerrors.ErrIO, err)
		}
		written += int64(n)
	}
	return f.Sync()
}
