//go:build !darwin

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSecretsFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	kc := NewKeychain()
	if _, err := kc.Get("reframe", "gemini_api_key"); err == nil {
		t.Fatal("expected error before any secret is stored")
	}
	if err := kc.Set("reframe", "gemini_api_key", "abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := kc.Get("reframe", "gemini_api_key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "abc123" {
		t.Errorf("Get = %q, want %q", got, "abc123")
	}

	info, err := os.Stat(filepath.Join(dir, "reframe", "secrets.json"))
	if err != nil {
		t.Fatalf("stat secrets file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("secrets file mode = %o, want 600", perm)
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	b := newPlatformBackend()
	if err := b.SetInt("server.port", 4300); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if err := b.SetString("log.level", "debug"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	reloaded := newPlatformBackend()
	port, ok, err := reloaded.GetInt("server.port")
	if err != nil || !ok || port != 4300 {
		t.Errorf("GetInt = (%d, %v, %v), want (4300, true, nil)", port, ok, err)
	}
	level, ok, err := reloaded.GetString("log.level")
	if err != nil || !ok || level != "debug" {
		t.Errorf("GetString = (%q, %v, %v), want (debug, true, nil)", level, ok, err)
	}

	if err := reloaded.Delete("log.level"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := newPlatformBackend().GetString("log.level"); ok {
		t.Error("log.level still present after Delete")
	}
}
