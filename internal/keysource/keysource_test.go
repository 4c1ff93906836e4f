package keysource

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFromKeyfileStripsTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.txt")
	if err := os.WriteFile(path, []byte("super secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	pw, err := FromKeyfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(pw.Expose()); got != "super secret" {
		t.Errorf("FromKeyfile = %q, want %q", got, "super secret")
	}
}

func TestResolvePrefersKeyfileOverEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.txt")
	if err := os.WriteFile(path, []byte("from-file"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvVar, "from-env")

	pw, err := Resolve(path, false, false, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(pw.Expose()); got != "from-file" {
		t.Errorf("Resolve = %q, want %q", got, "from-file")
	}
}

func TestResolveFallsBackToEnv(t *testing.T) {
	t.Setenv(EnvVar, "from-env")

	pw, err := Resolve("", false, false, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(pw.Expose()); got != "from-env" {
		t.Errorf("Resolve = %q, want %q", got, "from-env")
	}
}

func TestResolveFallsBackToPrompt(t *testing.T) {
	os.Unsetenv(EnvVar)
	stdin := strings.NewReader("typed-password\n")
	var stdout bytes.Buffer

	pw, err := Resolve("", false, false, stdin, &stdout)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(pw.Expose()); got != "typed-password" {
		t.Errorf("Resolve = %q, want %q", got, "typed-password")
	}
}

func TestResolveSkipErrorsInsteadOfPrompting(t *testing.T) {
	os.Unsetenv(EnvVar)
	stdin := strings.NewReader("typed-password\n")
	var stdout bytes.Buffer

	_, err := Resolve("", false, true, stdin, &stdout)
	if err == nil {
		t.Fatal("Resolve with skip=true and no keyfile/env: want error, got nil")
	}
	if stdout.Len() != 0 {
		t.Errorf("Resolve with skip=true wrote a prompt: %q", stdout.String())
	}
}

func TestResolveSkipStillUsesEnv(t *testing.T) {
	t.Setenv(EnvVar, "from-env")

	pw, err := Resolve("", false, true, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(pw.Expose()); got != "from-env" {
		t.Errorf("Resolve = %q, want %q", got, "from-env")
	}
}

func TestPromptConfirmMismatch(t *testing.T) {
	stdin := strings.NewReader("one\ntwo\n")
	var stdout bytes.Buffer

	_, err := Prompt(true, stdin, &stdout)
	if err == nil {
		t.Error("Prompt with mismatched confirmation: want error, got nil")
	}
}

func TestPromptConfirmMatch(t *testing.T) {
	stdin := strings.NewReader("same\nsame\n")
	var stdout bytes.Buffer

	pw, err := Prompt(true, stdin, &stdout)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(pw.Expose()); got != "same" {
		t.Errorf("Prompt = %q, want %q", got, "same")
	}
}

func TestPromptRejectsEmptyPassword(t *testing.T) {
	stdin := strings.NewReader("\n")
	var stdout bytes.Buffer

	_, err := Prompt(false, stdin, &stdout)
	if err == nil {
		t.Error("Prompt with empty password: want error, got nil")
	}
}
