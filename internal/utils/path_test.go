package utils

import (
	"path/filepath"
	"testing"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{
			name:      "empty path",
			input:     "",
			wantError: true,
		},
		{
			name:      "relative path",
			input:     "./test",
			wantError: false,
		},
		{
			name:      "absolute path",
			input:     "/tmp/test",
			wantError: false,
		},
		{
			name:      "home path",
			input:     "~/test",
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ResolvePath(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ResolvePath(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError {
				if result == "" {
					t.Errorf("ResolvePath(%q) returned empty string", tt.input)
				}
				if !filepath.IsAbs(result) {
					t.Errorf("ResolvePath(%q) = %q, want absolute path", tt.input, result)
				}
			}
		})
	}
}

func TestIsSubPath(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		child  string
		want   bool
	}{
		{"direct child", "/data/src", "/data/src/sub", true},
		{"deep child", "/data/src", "/data/src/a/b/c", true},
		{"same path", "/data/src", "/data/src", true},
		{"sibling", "/data/src", "/data/dst", false},
		{"prefix but not parent", "/data/src", "/data/srcother", false},
		{"actual parent", "/data/src", "/data", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSubPath(tt.parent, tt.child); got != tt.want {
				t.Errorf("IsSubPath(%q, %q) = %v, want %v", tt.parent, tt.child, got, tt.want)
			}
		})
	}
}
