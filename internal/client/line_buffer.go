package client

import "sync"

// lineBuffer keeps the most recent lines written by the server on its
// diagnostic stream.
type lineBuffer struct {
	mu    sync.Mutex
	lines []string
	next  int
	count int
}

func newLineBuffer(size int) *lineBuffer {
	if size <= 0 {
		size = 200
	}
	return &lineBuffer{lines: make([]string, size)}
}

func (b *lineBuffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines[b.next] = line
	b.next = (b.next + 1) % len(b.lines)
	if b.count < len(b.lines) {
		b.count++
	}
}

// Tail returns up to n of the newest lines, oldest first.
func (b *lineBuffer) Tail(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	start := (b.next - n + len(b.lines)) % len(b.lines)
	out := make([]string, n)
	for i := range out {
		out[i] = b.lines[(start+i)%len(b.lines)]
	}
	return out
}
