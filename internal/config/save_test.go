package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveThemeTypeCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrollcode", "config.yaml")
	if err := SaveThemeType(path, "dark"); err != nil {
		t.Fatalf("SaveThemeType: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	if !strings.Contains(string(data), "type: dark") {
		t.Fatalf("expected saved config to contain theme.type, got:\n%s", data)
	}
}

func TestSaveThemeTypePreservesExistingKeysAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := "# a hand-written comment\noverscan: 42\ntheme:\n  preset: dracula\n  type: light\n"
	if err := os.WriteFile(path, []byte(original), 0o600); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}

	if err := SaveThemeType(path, "dark"); err != nil {
		t.Fatalf("SaveThemeType: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved config: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "a hand-written comment") {
		t.Fatalf("expected comment to survive, got:\n%s", got)
	}
	if !strings.Contains(got, "overscan: 42") {
		t.Fatalf("expected unrelated key to survive, got:\n%s", got)
	}
	if !strings.Contains(got, "preset: dracula") {
		t.Fatalf("expected theme.preset to survive, got:\n%s", got)
	}
	if !strings.Contains(got, "type: dark") {
		t.Fatalf("expected theme.type to be updated, got:\n%s", got)
	}
	if strings.Contains(got, "type: light") {
		t.Fatalf("expected old theme.type value to be gone, got:\n%s", got)
	}
}
