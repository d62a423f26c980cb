package util

import "testing"

func TestNewIsMonotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		id := New()
		if len(id) != 26 {
			t.Fatalf("unexpected ulid length %d", len(id))
		}
		if id <= prev {
			t.Fatalf("ulid %s not after %s", id, prev)
		}
		prev = id
	}
}
