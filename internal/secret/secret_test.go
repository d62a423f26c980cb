package secret

import (
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestGenerate(t *testing.T) {
	c, err := Generate(CredentialLength)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(c) != CredentialLength {
		t.Fatalf("expected %d chars, got %d", CredentialLength, len(c))
	}
	for _, r := range c {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("unexpected rune %q in %q", r, c)
		}
	}
}

func TestSealOpen(t *testing.T) {
	box, err := NewBox(testKey)
	if err != nil {
		t.Fatalf("new box: %v", err)
	}

	sealed, err := box.Seal("hunter2hunter2ab")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if strings.Contains(sealed, "hunter2") {
		t.Fatalf("sealed value leaks plaintext: %s", sealed)
	}

	plain, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plain != "hunter2hunter2ab" {
		t.Fatalf("round trip mismatch: %q", plain)
	}

	if _, err := box.Open("bm90IHNlYWxlZA=="); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestNewBoxRejectsShortKey(t *testing.T) {
	if _, err := NewBox("abcd"); err == nil {
		t.Fatalf("expected error for short key")
	}
}
