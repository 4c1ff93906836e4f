package erase

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileRemovesErasedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(path, []byte("sensitive contents, definitely not zero"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := File(path, 2); err != nil {
		t.Fatalf("File: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after erase: err = %v", err)
	}
}

func TestFileDefaultsPassesWhenNonPositive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := File(path, 0); err != nil {
		t.Fatalf("File with passes=0: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after erase with default passes")
	}
}

func TestFileMissingPathErrors(t *testing.T) {
	if err := File(filepath.Join(t.TempDir(), "does-not-exist"), 1); err == nil {
		t.Error("File on a missing path: want error, got nil")
	}
}

func TestFileEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := File(path, 3); err != nil {
		t.Fatalf("File on empty file: %v", err)
	}
}

func TestPathOnRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Path(path, 2, false); err != nil {
		t.Fatalf("Path on a regular file: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after Path erase")
	}
}

func TestPathOnDirectoryWithoutRecurseRefuses(t *testing.T) {
	dir := t.TempDir()
	if err := Path(dir, 1, false); err == nil {
		t.Error("Path on a directory without recurse: want error, got nil")
	}
}

func TestPathRecursesAndErasesRegularFiles(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	if err := os.MkdirAll(nested, 0o700); err != nil {
		t.Fatal(err)
	}
	file1 := filepath.Join(dir, "file1.txt")
	file2 := filepath.Join(nested, "file2.txt")
	if err := os.WriteFile(file1, []byte("one"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file2, []byte("two"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Path(dir, 2, true); err != nil {
		t.Fatalf("Path with recurse: %v", err)
	}
	if _, err := os.Stat(file1); !os.IsNotExist(err) {
		t.Error("file1.txt still exists after recursive erase")
	}
	if _, err := os.Stat(file2); !os.IsNotExist(err) {
		t.Error("nested/file2.txt still exists after recursive erase")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory tree itself should survive erase: %v", err)
	}
}

func TestPathSkipsSymlinkWithoutFollowing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("do not erase me"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported on this platform: %v", err)
	}

	if err := Path(link, 2, false); err != nil {
		t.Fatalf("Path on a symlink: %v", err)
	}
	if _, err := os.Lstat(link); err != nil {
		t.Error("symlink itself should still exist, Path must skip rather than erase it")
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target after Path on symlink: %v", err)
	}
	if string(data) != "do not erase me" {
		t.Error("Path followed the symlink and erased its target")
	}
}

func TestPathRecurseSkipsSymlinkedDirEntry(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	victim := filepath.Join(other, "victim.txt")
	if err := os.WriteFile(victim, []byte("outside the tree"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "escape.txt")
	if err := os.Symlink(victim, link); err != nil {
		t.Skipf("symlinks not supported on this platform: %v", err)
	}

	if err := Path(dir, 2, true); err != nil {
		t.Fatalf("Path with recurse over a symlinked entry: %v", err)
	}
	data, err := os.ReadFile(victim)
	if err != nil {
		t.Fatalf("read victim after recursive Path: %v", err)
	}
	if string(data) != "outside the tree" {
		t.Error("recursive Path followed a symlink out of the tree and erased its target")
	}
}
