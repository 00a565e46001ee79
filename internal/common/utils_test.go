package common

import "testing"

func TestHasAny(t *testing.T) {
	if !HasAny("PERMISSION_DENIED", "DENIED", "BLOCKED") {
		t.Fatalf("expected match")
	}
	if HasAny("TIMEOUT", "DENIED", "") {
		t.Fatalf("unexpected match")
	}
}
