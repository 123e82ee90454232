// Package main provides tests for the helper functions.
package main

import (
	"strings"
	"testing"
)

// TestValidateTaskID tests the task id checks applied before building URLs.
func TestValidateTaskID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "uuid", input: "3f2a9c1e-7b1d-4c55-9d1e-0c5a8b2f4e11"},
		{name: "short id", input: "task_42"},
		{name: "empty", input: "", wantErr: true},
		{name: "slash", input: "a/b", wantErr: true},
		{name: "query", input: "a?b=1", wantErr: true},
		{name: "fragment", input: "a#b", wantErr: true},
		{name: "space", input: "a b", wantErr: true},
		{name: "newline", input: "a\nb", wantErr: true},
		{name: "too long", input: strings.Repeat("x", maxTaskIDLen+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTaskID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTaskID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcd", "****"},
		{"abcdefgh", "****efgh"},
		{strings.Repeat("a", 40) + "wxyz", strings.Repeat("*", 12) + "wxyz"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.input); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
