package humansize

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"100B", 100, false},
		{"1KB", 1000, false},
		{"1MB", 1000 * 1000, false},
		{"1GB", 1000 * 1000 * 1000, false},
		{"1KiB", 1024, false},
		{"1MiB", 1024 * 1024, false},
		{"1GiB", 1024 * 1024 * 1024, false},
		{"100 KB", 100 * 1000, false},
		{"10 MiB", 10 * 1024 * 1024, false},
		{"100kb", 100 * 1000, false},
		{"1024", 1024, false},
		{"0", 0, false},
		{"", 0, true},
		{"invalid", 0, true},
		{"-100KB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.0 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{1536, "1.5 KiB"},
		{-100, "-100 B"},
	}

	for _, tt := range tests {
		got := Format(tt.input)
		if got != tt.expected {
			t.Errorf("Format(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{1000, "1.0 kB"},
		{1000 * 1000, "1.0 MB"},
		{1500, "1.5 kB"},
	}

	for _, tt := range tests {
		got := FormatDecimal(tt.input)
		if got != tt.expected {
			t.Errorf("FormatDecimal(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRate(t *testing.T) {
	got := Rate(1024 * 1024)
	want := "1.0 MiB/s"
	if got != want {
		t.Errorf("Rate(1MiB) = %q, want %q", got, want)
	}
}
