package cfg

import "testing"

func TestClampPollInterval(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"below minimum", 1, 5},
		{"zero", 0, 5},
		{"negative", -10, 5},
		{"at minimum", 5, 5},
		{"in range", 30, 30},
		{"at maximum", 60, 60},
		{"above maximum", 300, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPollInterval(tt.input); got != tt.expected {
				t.Errorf("ClampPollInterval(%d) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "1.2.3"
	if got := GetVersion(); got != "1.2.3" {
		t.Errorf("Expected 1.2.3, got %q", got)
	}

	Version = ""
	if got := GetVersion(); got != "unknown" {
		t.Errorf("Expected unknown fallback, got %q", got)
	}
}
