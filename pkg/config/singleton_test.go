package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func resetGlobal() {
	current.Store(nil)
}

func TestInitialize(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9999"
`)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("GetConfig() returned nil after Initialize")
	}
	if cfg.Server.ListenAddress != "127.0.0.1:9999" {
		t.Errorf("ListenAddress = %q, want 127.0.0.1:9999", cfg.Server.ListenAddress)
	}
	if Path() != path {
		t.Errorf("Path() = %q, want %q", Path(), path)
	}

	// Second call is ignored.
	if err := Initialize(writeConfig(t, `server: {listen_address: "127.0.0.1:1"}`)); err != nil {
		t.Fatalf("second Initialize() failed: %v", err)
	}
	if GetConfig().Server.ListenAddress != "127.0.0.1:9999" {
		t.Error("second Initialize() replaced configuration")
	}
}

func TestInitialize_RetryAfterFailure(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	if err := Initialize(writeConfig(t, `audit: {capacity: -1}`)); err == nil {
		t.Fatal("Initialize() with invalid file succeeded")
	}
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() after a failure: %v", err)
	}
	if GetConfig() == nil {
		t.Error("GetConfig() = nil after a successful Initialize")
	}
}

func TestReloadConfig(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	SetConfig(Default())

	changed, err := ReloadConfig(writeConfig(t, `audit: {capacity: 7}`))
	if err != nil {
		t.Fatalf("ReloadConfig() failed: %v", err)
	}
	if got := MustGetConfig().Audit.Capacity; got != 7 {
		t.Errorf("Capacity = %d, want 7", got)
	}
	if diff := cmp.Diff([]string{"audit"}, changed); diff != "" {
		t.Errorf("changed sections mismatch (-want +got):\n%s", diff)
	}

	// A failed reload keeps the current configuration.
	if _, err := ReloadConfig(writeConfig(t, `audit: {capacity: -1}`)); err == nil {
		t.Fatal("ReloadConfig() with invalid file succeeded")
	}
	if got := MustGetConfig().Audit.Capacity; got != 7 {
		t.Errorf("Capacity = %d after failed reload, want 7", got)
	}
}

func TestReloadConfig_RemembersPath(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, `telemetry: {logging: {level: info}}`)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	writeConfigAt(t, path, `telemetry: {logging: {level: debug}}`)
	changed, err := ReloadConfig("")
	if err != nil {
		t.Fatalf("ReloadConfig() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"telemetry.logging"}, changed); diff != "" {
		t.Errorf("changed sections mismatch (-want +got):\n%s", diff)
	}
	if got := GetConfig().Telemetry.Logging.Level; got != "debug" {
		t.Errorf("level = %q, want debug", got)
	}
}

func TestChangedSections(t *testing.T) {
	a := Default()
	b := Default()
	if got := ChangedSections(a, b); len(got) != 0 {
		t.Errorf("ChangedSections(default, default) = %v, want none", got)
	}

	b.Server.RateLimit.Enabled = true
	b.Guard.ConcentrationLimit = 0.5
	b.Telemetry.Tracing.Enabled = true
	want := []string{"server", "guard", "telemetry.tracing"}
	if diff := cmp.Diff(want, ChangedSections(a, b)); diff != "" {
		t.Errorf("ChangedSections() mismatch (-want +got):\n%s", diff)
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	defer func() {
		if recover() == nil {
			t.Error("MustGetConfig() did not panic without configuration")
		}
	}()
	MustGetConfig()
}
