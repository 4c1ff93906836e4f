// Package humansize formats and parses byte counts for CLI progress and
// summary output.
package humansize

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Parse parses a human-readable size string to bytes.
// Supported formats:
//   - Decimal units: 100B, 10KB, 1MB, 1GB, 1TB (1KB = 1000 bytes)
//   - Binary units: 10KiB, 1MiB, 1GiB, 1TiB (1KiB = 1024 bytes)
//   - Plain number: 1024 (interpreted as bytes)
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size format %q: %w", s, err)
	}
	return int64(n), nil
}

// Format renders bytes as a human-readable size using IEC binary units
// (KiB, MiB, GiB, ...), the form dexios prints in progress and summary
// lines.
func Format(bytes int64) string {
	if bytes < 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatDecimal renders bytes using SI decimal units (kB, MB, GB, ...).
func FormatDecimal(bytes int64) string {
	if bytes < 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return humanize.Bytes(uint64(bytes))
}

// Rate renders bytesPerSecond as a human-readable throughput string, used
// by --benchmark to report encryption/decryption speed.
func Rate(bytesPerSecond float64) string {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}
	return humanize.IBytes(uint64(bytesPerSecond)) + "/s"
}
