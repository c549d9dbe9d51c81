package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TEST_SECRET_ENV", "from-env")

	got, err := Load(Source{Name: "key", File: path, Value: "inline", Env: "TEST_SECRET_ENV"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected from-file, got %q", got)
	}
}

func TestLoadFallsBackToValueThenEnv(t *testing.T) {
	t.Setenv("TEST_SECRET_ENV", " from-env ")

	got, err := Load(Source{Value: "inline", Env: "TEST_SECRET_ENV"})
	if err != nil || got != "inline" {
		t.Fatalf("expected inline value, got %q (%v)", got, err)
	}

	got, err = Load(Source{Env: "TEST_SECRET_ENV"})
	if err != nil || got != "from-env" {
		t.Fatalf("expected env value, got %q (%v)", got, err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("TEST_SECRET_EMPTY", "")

	_, err := Load(Source{Name: "gemini api key", Env: "TEST_SECRET_EMPTY"})
	if err == nil || !strings.Contains(err.Error(), "TEST_SECRET_EMPTY") {
		t.Fatalf("expected env hint in error, got %v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(Source{File: empty}); err == nil {
		t.Fatal("expected error for empty file")
	}

	if _, err := Load(Source{File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
