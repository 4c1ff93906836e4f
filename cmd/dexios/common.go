package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/postalsys/dexios-go/internal/config"
	"github.com/postalsys/dexios-go/internal/erase"
	"github.com/postalsys/dexios-go/internal/keysource"
	"github.com/postalsys/dexios-go/internal/logging"
	"github.com/postalsys/dexios-go/internal/primitives"
	"github.com/postalsys/dexios-go/internal/protected"
	"github.com/spf13/pflag"
)

// eraseUnset is the value left in commonFlags.erase when --erase was not
// given at all, distinct from eraseDefaultPasses which pflag substitutes
// when --erase is given bare, with no "=<passes>".
const eraseUnset = ""
const eraseDefaultPasses = "default"

// commonFlags holds the flag set shared by every subcommand that runs the
// pipeline: how to get the password, how to log, and whether this is a dry
// --benchmark run.
type commonFlags struct {
	keyfile   string
	logLevel  string
	logFormat string
	benchmark bool
	skip      bool
	erase     string
}

func (f *commonFlags) register(flags *pflag.FlagSet, defaults *config.Defaults) {
	flags.StringVar(&f.keyfile, "keyfile", "", "read the password from this file instead of prompting")
	flags.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "debug, info, warn or error")
	flags.StringVar(&f.logFormat, "log-format", defaults.LogFormat, "text or json")
	flags.BoolVar(&f.benchmark, "benchmark", false, "run the full pipeline but discard all output, for throughput measurement")
	flags.BoolVar(&f.skip, "skip", false, "fail instead of prompting interactively when no --keyfile or DEXIOS_KEY is set")
	flags.StringVar(&f.erase, "erase", eraseUnset, "securely erase the source file after a successful operation; takes an optional pass count, e.g. --erase=8")
	flags.Lookup("erase").NoOptDefVal = eraseDefaultPasses
}

// resolveErase reports whether --erase was given at all, and if so how
// many overwrite passes to run: the explicit count from "--erase=<passes>",
// or defaults.ErasePasses when --erase was given bare.
func (f *commonFlags) resolveErase(defaults *config.Defaults) (passes int, do bool, err error) {
	switch f.erase {
	case eraseUnset:
		return 0, false, nil
	case eraseDefaultPasses:
		passes = defaults.ErasePasses
		if passes <= 0 {
			passes = erase.DefaultPasses
		}
		return passes, true, nil
	default:
		n, convErr := strconv.Atoi(f.erase)
		if convErr != nil || n <= 0 {
			return 0, false, fmt.Errorf("--erase: invalid pass count %q", f.erase)
		}
		return n, true, nil
	}
}

// cipherFlags holds the --algorithm/--mode pair that only makes sense on
// the encrypting side: decrypt and unpack read both back out of the file's
// own header.
type cipherFlags struct {
	algorithm string
	mode      string
	hash      bool
}

func (f *cipherFlags) register(flags *pflag.FlagSet, defaults *config.Defaults) {
	flags.StringVar(&f.algorithm, "algorithm", defaults.Algorithm, "cipher: xchacha20-poly1305, aes-256-gcm or deoxys-ii-256")
	flags.StringVar(&f.mode, "mode", defaults.Mode, "memory or stream")
	flags.BoolVar(&f.hash, "hash", defaults.HashOnEncrypt, "print a BLAKE3 digest of the ciphertext after encrypting")
}

func (f *cipherFlags) resolveAlgorithm() (primitives.Algorithm, error) {
	return primitives.ParseAlgorithm(f.algorithm)
}

func (f *cipherFlags) resolveMode() (primitives.Mode, error) {
	return primitives.ParseMode(f.mode)
}

func (f *commonFlags) logger() *slog.Logger {
	return logging.NewLogger(f.logLevel, f.logFormat)
}

// resolvePassword fetches the password for an operation via the keyfile /
// DEXIOS_KEY / interactive-prompt precedence. confirm should be true for
// encryption (to catch typos) and false for decryption. skip suppresses
// the interactive prompt, turning a missing keyfile and environment
// variable into an error instead of blocking on stdin.
func resolvePassword(keyfile string, confirm, skip bool) (*protected.Bytes, error) {
	return keysource.Resolve(keyfile, confirm, skip, os.Stdin, os.Stdout)
}

// openInput opens path for reading, or returns os.Stdin for "-".
func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// openSeekableInput opens path for reading; unlike openInput it rejects "-"
// since the header codec and key rotation both need to seek.
func openSeekableInput(path string) (*os.File, error) {
	if path == "-" {
		return nil, fmt.Errorf("stdin is not supported here, a seekable file is required")
	}
	return openInput(path)
}

// createOutput creates path for writing, truncating any existing file, or
// returns os.Stdout for "-".
func createOutput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

// openExistingReadWrite opens an existing file for in-place read+write,
// without creating or truncating it. Used by "header restore" and
// "header strip", which overwrite a region of a file that already exists.
func openExistingReadWrite(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func closeQuietly(f *os.File) {
	if f == os.Stdin || f == os.Stdout {
		return
	}
	f.Close()
}

func loadDefaults() *config.Defaults {
	d, err := config.LoadUserConfig()
	if err != nil {
		return config.Default()
	}
	return d
}
