package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPackUnpack_Basic(t *testing.T) {
	srcDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(srcDir, "file1.txt"), []byte("content1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "file2.txt"), []byte("content2"), 0o644); err != nil {
		t.Fatal(err)
	}

	subDir := filepath.Join(srcDir, "subdir")
	if err := os.Mkdir(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(subDir, "nested.txt"), []byte("nested content"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Pack(srcDir, &buf); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("Pack produced no output")
	}

	destDir := t.TempDir()
	r := bytes.NewReader(buf.Bytes())
	if err := Unpack(r, int64(r.Len()), destDir); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	content1, err := os.ReadFile(filepath.Join(destDir, "file1.txt"))
	if err != nil {
		t.Fatalf("read file1.txt: %v", err)
	}
	if string(content1) != "content1" {
		t.Errorf("file1.txt content = %q, want %q", content1, "content1")
	}

	nested, err := os.ReadFile(filepath.Join(destDir, "subdir", "nested.txt"))
	if err != nil {
		t.Fatalf("read nested.txt: %v", err)
	}
	if string(nested) != "nested content" {
		t.Errorf("nested.txt content = %q, want %q", nested, "nested content")
	}
}

func TestPackUnpack_EmptyDir(t *testing.T) {
	srcDir := t.TempDir()

	var buf bytes.Buffer
	if err := Pack(srcDir, &buf); err != nil {
		t.Fatalf("Pack failed on empty dir: %v", err)
	}

	destDir := t.TempDir()
	r := bytes.NewReader(buf.Bytes())
	if err := Unpack(r, int64(r.Len()), destDir); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
}

func TestPack_NotADirectory(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	var buf bytes.Buffer
	if err := Pack(tmpFile.Name(), &buf); err == nil {
		t.Fatal("expected error when packing a file, not a directory")
	}
}

func TestPackUnpack_PreservesPermissions(t *testing.T) {
	srcDir := t.TempDir()

	filePath := filepath.Join(srcDir, "executable.sh")
	if err := os.WriteFile(filePath, []byte("#!/bin/bash\necho hello"), 0o755); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Pack(srcDir, &buf); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	destDir := t.TempDir()
	r := bytes.NewReader(buf.Bytes())
	if err := Unpack(r, int64(r.Len()), destDir); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(destDir, "executable.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("executable bit not preserved: got %o", info.Mode().Perm())
	}
}

func TestSanitizeEntryPath(t *testing.T) {
	destDir := "/tmp/safe"

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"normal file", "file.txt", false},
		{"nested file", "dir/file.txt", false},
		{"absolute path", "/etc/passwd", true},
		{"parent traversal", "../escape.txt", true},
		{"nested traversal", "dir/../../../escape.txt", true},
		{"dot-dot only", "..", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sanitizeEntryPath(destDir, tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("sanitizeEntryPath(%q, %q) error = %v, wantErr %v", destDir, tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestPackUnpack_WithSymlink(t *testing.T) {
	srcDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(srcDir, "original.txt"), []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	symlinkPath := filepath.Join(srcDir, "link.txt")
	if err := os.Symlink("original.txt", symlinkPath); err != nil {
		t.Skip("symlinks not supported on this platform")
	}

	var buf bytes.Buffer
	if err := Pack(srcDir, &buf); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	destDir := t.TempDir()
	r := bytes.NewReader(buf.Bytes())
	if err := Unpack(r, int64(r.Len()), destDir); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	// Symlinks are stored as regular files containing their target.
	content, err := os.ReadFile(filepath.Join(destDir, "link.txt"))
	if err != nil {
		t.Fatalf("read link.txt: %v", err)
	}
	if string(content) != "original.txt" {
		t.Errorf("link.txt content = %q, want %q", content, "original.txt")
	}
}
