package profile

import (
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := Save("default", "ws://localhost:8080/ws", "alice"); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}

	p := Load("default")
	if p == nil {
		t.Fatal("Expected a profile, got nil")
	}
	if p.ServerURL != "ws://localhost:8080/ws" || p.Username != "alice" {
		t.Errorf("Unexpected profile: %+v", p)
	}
}

func TestLoadMissingProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if p := Load("default"); p != nil {
		t.Errorf("Expected nil for missing profile, got %+v", p)
	}
}

func TestClearRemovesProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := Save("default", "ws://localhost:8080/ws", "alice"); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}

	Clear("default")
	if p := Load("default"); p != nil {
		t.Errorf("Expected profile to be gone, got %+v", p)
	}
}
