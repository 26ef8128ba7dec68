package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("", Flags{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Root != "." {
		t.Fatalf("Root = %q, want .", s.Root)
	}
	if !s.CompressionEnabled || !s.SecurityHeaders || !s.CacheControl {
		t.Fatal("expected the boolean defaults to be true")
	}
	if s.Listing.Format != "html" {
		t.Fatalf("Listing.Format = %q, want html", s.Listing.Format)
	}
}

func TestLoadTOMLOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[general]
root = "/srv/www"
compression = false
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, Flags{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Root != "/srv/www" {
		t.Fatalf("Root = %q", s.Root)
	}
	if s.CompressionEnabled {
		t.Fatal("expected compression disabled by TOML")
	}
}

func TestLoadEnvFillsFieldsTOMLLeavesUnset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[general]\ncompression = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVER_ROOT", "/from-env")

	s, err := Load(path, Flags{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Root != "/from-env" {
		t.Fatalf("Root = %q, want /from-env (TOML left root unset, so env fills it)", s.Root)
	}
}

func TestLoadFlagOverridesEverything(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[general]\nroot = \"/from-toml\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVER_ROOT", "/from-env")

	s, err := Load(path, Flags{Set: map[string]bool{"root": true}, Root: "/from-flag"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Root != "/from-flag" {
		t.Fatalf("Root = %q, want /from-flag", s.Root)
	}
}

func TestLoadRejectsDuplicateCacheControlDeclaration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[general]
cache-control-headers = true
cache_control_headers = false
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, Flags{}); err == nil {
		t.Fatal("expected an error for duplicate cache-control declarations")
	}
}

func TestLoadMalformedBasicAuthFailsClosed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[general]\nbasic-auth = \"no-colon-here\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, Flags{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Auth == nil {
		t.Fatal("expected a credential to be installed even when malformed")
	}
	if s.Auth.BcryptHash == "" {
		t.Fatal("expected a non-empty sentinel hash so no password can satisfy it")
	}
}

func TestClampBoundsGracePeriodAndListingOrder(t *testing.T) {
	s := &Settings{}
	s.GracePeriod = 1000_000_000_000 * 1000
	s.Listing.DefaultOrder = 99
	s.Clamp()
	if s.GracePeriod != 255*time.Second {
		t.Fatalf("GracePeriod = %v, want clamped to 255s", s.GracePeriod)
	}
	if s.Listing.DefaultOrder != 0 {
		t.Fatalf("DefaultOrder = %d, want clamped to 0", s.Listing.DefaultOrder)
	}
	if s.Listing.Format != "html" {
		t.Fatalf("Format = %q, want html", s.Listing.Format)
	}
}
