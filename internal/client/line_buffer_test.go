package client

import "testing"

func TestLineBufferTail(t *testing.T) {
	buf := newLineBuffer(3)

	buf.Add("a")
	buf.Add("b")
	if got := buf.Tail(5); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected tail: %v", got)
	}

	buf.Add("c")
	buf.Add("d") // overwrites "a"

	got := buf.Tail(3)
	expected := []string{"b", "c", "d"}
	if len(got) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("unexpected line %d: want %q got %q", i, expected[i], got[i])
		}
	}

	if got := buf.Tail(1); len(got) != 1 || got[0] != "d" {
		t.Fatalf("expected newest line, got %v", got)
	}
	if empty := buf.Tail(0); empty != nil {
		t.Fatalf("expected nil for zero tail, got %v", empty)
	}
	if newLineBuffer(0).Tail(1) != nil {
		t.Fatalf("expected nil tail from empty buffer")
	}
}
