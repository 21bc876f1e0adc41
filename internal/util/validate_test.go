package util

import (
	"strings"
	"testing"
)

func TestValidateContainerName_Valid(t *testing.T) {
	valid := []string{
		"web-1",
		"my.app",
		"a1",
		"postgres_16",
		"Jellyfin",
		"123numeric",
		"a-b.c_d",
	}
	for _, name := range valid {
		t.Run(name, func(t *testing.T) {
			if err := ValidateContainerName(name); err != nil {
				t.Errorf("expected %q to be valid, got error: %v", name, err)
			}
		})
	}
}

func TestValidateContainerName_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		wantMsg string
	}{
		{"", "at least 2 characters"},
		{"a", "at least 2 characters"},
		{"web server", "invalid characters"},
		{"-web", "must start with an alphanumeric"},
		{"_web", "must start with an alphanumeric"},
		{".web", "must start with an alphanumeric"},
		{"web/1", "invalid characters"},
		{"web@host", "invalid characters"},
		{"名字", "invalid characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContainerName(tt.name)
			if err == nil {
				t.Fatalf("expected %q to be invalid, got nil", tt.name)
			}
			if got := err.Error(); !strings.Contains(got, tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, got)
			}
		})
	}
}

func TestNormalizeURLKey(t *testing.T) {
	if got := NormalizeURLKey("  HTTP://Nas:12712// "); got != "http://nas:12712" {
		t.Errorf("NormalizeURLKey() = %q", got)
	}
}
