// Package status provides shared status constants and helpers for task progress.
package status

import (
	"testing"
)

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{"completed", true},
		{"failed", true},
		{"COMPLETED", true}, // Case insensitive
		{"Failed", true},
		{"connecting", false},
		{"connected", false},
		{"pending", false},
		{"queued", false},
		{"processing", false},
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			result := IsTerminal(tt.status)
			if result != tt.expected {
				t.Errorf("IsTerminal(%q) = %v, want %v", tt.status, result, tt.expected)
			}
		})
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{"pending", true},
		{"queued", true},
		{"processing", true},
		{"PROCESSING", true}, // Case insensitive
		{"connecting", false},
		{"connected", false},
		{"completed", false},
		{"failed", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			result := IsActive(tt.status)
			if result != tt.expected {
				t.Errorf("IsActive(%q) = %v, want %v", tt.status, result, tt.expected)
			}
		})
	}
}

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		name     string
		from     Progress
		to       Progress
		expected bool
	}{
		{"connecting to connected", Connecting, Connected, true},
		{"connected to connecting", Connected, Connecting, true},
		{"connected to processing", Connected, Processing, true},
		{"queued to processing", Queued, Processing, true},
		{"processing to queued", Processing, Queued, true},
		{"processing to connected", Processing, Connected, false},
		{"processing to completed", Processing, Completed, true},
		{"connecting to failed", Connecting, Failed, true},
		{"completed to failed", Completed, Failed, false},
		{"failed to processing", Failed, Processing, false},
		{"processing to unknown", Processing, Progress("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanAdvance(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("CanAdvance(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status   string
		expected string
	}{
		{"connecting", "◌"},
		{"connected", "◌"},
		{"pending", "⏳"},
		{"queued", "⏳"},
		{"processing", "▶"},
		{"completed", "✓"},
		{"failed", "✗"},
		{"unknown", "●"},
		{"", "●"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			result := StatusIcon(tt.status)
			if result != tt.expected {
				t.Errorf("StatusIcon(%q) = %q, want %q", tt.status, result, tt.expected)
			}
		})
	}
}

func TestStatusCategory(t *testing.T) {
	tests := []struct {
		status   string
		expected string
	}{
		{"connecting", "dim"},
		{"queued", "dim"},
		{"processing", "info"},
		{"completed", "success"},
		{"failed", "error"},
		{"", "dim"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			result := StatusCategory(tt.status)
			if result != tt.expected {
				t.Errorf("StatusCategory(%q) = %q, want %q", tt.status, result, tt.expected)
			}
		})
	}
}
