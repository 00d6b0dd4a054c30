package middleware

import "testing"

func TestBuildKey(t *testing.T) {
	got := buildKey("POST", "/invoices", 12, "req-abc")
	want := "idemp:POST:/invoices:12:req-abc"
	if got != want {
		t.Fatalf("buildKey = %q, want %q", got, want)
	}
}

func TestBuildKeyDistinguishesUsers(t *testing.T) {
	a := buildKey("POST", "/invoices", 1, "same-id")
	b := buildKey("POST", "/invoices", 2, "same-id")
	if a == b {
		t.Fatal("keys for different users must differ")
	}
}

func TestBodyHash(t *testing.T) {
	a := bodyHash([]byte(`{"client_id":1}`))
	b := bodyHash([]byte(`{"client_id":1}`))
	c := bodyHash([]byte(`{"client_id":2}`))
	if a != b {
		t.Error("same body must hash identically")
	}
	if a == c {
		t.Error("different bodies must hash differently")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256, got %d chars", len(a))
	}
	if empty := bodyHash(nil); len(empty) != 64 {
		t.Errorf("nil body should still hash, got %q", empty)
	}
}
