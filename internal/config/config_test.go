package config

import "testing"

func TestParseOverridesOnlyGivenFields(t *testing.T) {
	cfg, err := Parse([]byte("algorithm: aes-256-gcm\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Algorithm != "aes-256-gcm" {
		t.Errorf("Algorithm = %q, want %q", cfg.Algorithm, "aes-256-gcm")
	}
	if cfg.ErasePasses != Default().ErasePasses {
		t.Errorf("ErasePasses = %d, want default %d", cfg.ErasePasses, Default().ErasePasses)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("algorithm: [unterminated")); err == nil {
		t.Error("Parse with invalid YAML: want error, got nil")
	}
}

func TestDefaultValues(t *testing.T) {
	d := Default()
	if d.Algorithm == "" || d.Mode == "" {
		t.Error("Default() left Algorithm or Mode empty")
	}
	if d.ErasePasses <= 0 {
		t.Error("Default() ErasePasses must be positive")
	}
}
