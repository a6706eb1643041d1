package ratelimit

import (
	"testing"
)

func TestConnectionCap(t *testing.T) {
	rl := New(2, 5)

	if !rl.CanConnect("1.2.3.4") {
		t.Fatal("Expected first connection to be allowed")
	}
	rl.AddConnection("1.2.3.4")
	rl.AddConnection("1.2.3.4")

	if rl.CanConnect("1.2.3.4") {
		t.Error("Expected third connection to be denied")
	}
	if !rl.CanConnect("5.6.7.8") {
		t.Error("Expected other IPs to be unaffected")
	}

	rl.RemoveConnection("1.2.3.4")
	if !rl.CanConnect("1.2.3.4") {
		t.Error("Expected connection to be allowed again after release")
	}
}

func TestClearWindow(t *testing.T) {
	rl := New(10, 2)

	if !rl.AllowClear("1.2.3.4") {
		t.Fatal("Expected first clear to be allowed")
	}
	if !rl.AllowClear("1.2.3.4") {
		t.Fatal("Expected second clear to be allowed")
	}
	if rl.AllowClear("1.2.3.4") {
		t.Error("Expected third clear within a minute to be denied")
	}
	if !rl.AllowClear("5.6.7.8") {
		t.Error("Expected other IPs to keep their own budget")
	}
}
