// Package keysource resolves the password for an operation from a keyfile,
// an environment variable, or an interactive terminal prompt, in that
// order of precedence.
package keysource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/postalsys/dexios-go/internal/dexerrors"
	"github.com/postalsys/dexios-go/internal/protected"
	"golang.org/x/term"
)

// EnvVar is the environment variable checked when no keyfile is given.
const EnvVar = "DEXIOS_KEY"

// Resolve returns the password to use for an operation. keyfilePath, if
// non-empty, always wins. Otherwise EnvVar is checked. Failing both, the
// user is prompted on the terminal, unless skip is set: skip suppresses
// prompts entirely, so a missing keyfile and environment variable become
// an error instead of blocking on stdin. confirm asks for the password
// twice and rejects a mismatch, which callers should set for encryption
// but not for decryption.
func Resolve(keyfilePath string, confirm, skip bool, stdin io.Reader, stdout io.Writer) (*protected.Bytes, error) {
	if keyfilePath != "" {
		return FromKeyfile(keyfilePath)
	}
	if val, ok := os.LookupEnv(EnvVar); ok {
		return protected.New([]byte(val)), nil
	}
	if skip {
		return nil, fmt.Errorf("%w: no --keyfile or %s set, and --skip suppresses the interactive prompt", dexerrors.ErrKdf, EnvVar)
	}
	return Prompt(confirm, stdin, stdout)
}

// FromKeyfile reads the entire contents of path as the raw password,
// stripping a single trailing newline if present so a file saved by a
// text editor doesn't silently change the key.
func FromKeyfile(path string) (*protected.Bytes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read keyfile %s: %v", dexerrors.ErrIO, path, err)
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	return protected.New(data), nil
}

// Prompt reads a password from the terminal without echoing it. When
// confirm is true the user is asked to type it a second time and the
// operation fails if the two entries don't match.
func Prompt(confirm bool, stdin io.Reader, stdout io.Writer) (*protected.Bytes, error) {
	fd, ok := fdOf(stdin)
	if !ok {
		return promptPlain(confirm, stdin, stdout)
	}

	fmt.Fprint(stdout, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: read password: %v", dexerrors.ErrIO, err)
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("%w: empty password", dexerrors.ErrKdf)
	}
	if !confirm {
		return protected.New(first), nil
	}

	fmt.Fprint(stdout, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(stdout)
	if err != nil {
		zero(first)
		return nil, fmt.Errorf("%w: read password confirmation: %v", dexerrors.ErrIO, err)
	}
	defer zero(second)

	if !bytes.Equal(first, second) {
		zero(first)
		return nil, fmt.Errorf("%w: passwords do not match", dexerrors.ErrKdf)
	}
	return protected.New(first), nil
}

// promptPlain is used only when stdin isn't a terminal (tests, pipes):
// term.ReadPassword requires a real file descriptor, so this path reads a
// single newline-terminated line instead of suppressing echo.
func promptPlain(confirm bool, stdin io.Reader, stdout io.Writer) (*protected.Bytes, error) {
	r := bufio.NewReader(stdin)

	fmt.Fprint(stdout, "Password: ")
	first, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("%w: empty password", dexerrors.ErrKdf)
	}
	if !confirm {
		return protected.New(first), nil
	}

	fmt.Fprint(stdout, "Confirm password: ")
	second, err := readLine(r)
	if err != nil {
		zero(first)
		return nil, err
	}
	defer zero(second)

	if !bytes.Equal(first, second) {
		zero(first)
		return nil, fmt.Errorf("%w: passwords do not match", dexerrors.ErrKdf)
	}
	return protected.New(first), nil
}

func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read password: %v", dexerrors.ErrIO, err)
	}
	line = trimNewline(line)
	return []byte(line), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func fdOf(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	return int(f.Fd()), term.IsTerminal(int(f.Fd()))
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
