// Package config provides configuration parsing and defaults for the
// dexios CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults holds the values the CLI falls back to when a flag isn't given
// explicitly. It is intentionally small: dexios has no agent topology or
// transport configuration to carry, just the handful of knobs a user might
// want to fix once in ~/.dexios.yaml instead of retyping on every command.
type Defaults struct {
	// Algorithm is one of "aes-256-gcm", "xchacha20-poly1305" or
	// "deoxys-ii-256".
	Algorithm string `yaml:"algorithm"`

	// Mode is "memory" or "stream".
	Mode string `yaml:"mode"`

	// ErasePasses is how many random-overwrite passes `dexios erase` runs
	// absent an explicit --passes flag.
	ErasePasses int `yaml:"erase_passes"`

	// HashOnEncrypt, when true, makes `dexios encrypt` print a BLAKE3
	// digest of the ciphertext it wrote, without being asked via --hash.
	HashOnEncrypt bool `yaml:"hash_on_encrypt"`

	// LogLevel and LogFormat configure the slog handler the same way the
	// agent's own config does: "debug"/"info"/"warn"/"error" and
	// "text"/"json".
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in defaults used when no config file exists.
func Default() *Defaults {
	return &Defaults{
		Algorithm:     "xchacha20-poly1305",
		Mode:          "memory",
		ErasePasses:   4,
		HashOnEncrypt: false,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load reads and parses a YAML config file, starting from Default() so an
// incomplete file only overrides the fields it sets.
func Load(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals YAML config data on top of the built-in defaults.
func Parse(data []byte) (*Defaults, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadUserConfig loads ~/.dexios.yaml if it exists, and returns the
// built-in defaults unchanged if it doesn't.
func LoadUserConfig() (*Defaults, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}
	path := home + "/.dexios.yaml"
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return Load(path)
}
