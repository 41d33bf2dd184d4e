// Package display renders live prices of the watched market.
package display

import (
	"fmt"
	"io"
	"sync"
)

// Update is emitted on every accepted price change.
type Update struct {
	SecondsRemaining int
	YesCents         int
	NoCents          int
}

// Sink receives price updates in decode order. Implementations must not block
// for long; they run on the session's goroutine.
type Sink interface {
	PriceUpdate(u Update)
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(Update)

func (f SinkFunc) PriceUpdate(u Update) {
	f(u)
}

// Console redraws a single status line, e.g. "⏱ T-312s | YES: 62¢ | NO: 41¢".
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	dirty bool
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) PriceUpdate(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "\r⏱ T-%ds | YES: %d¢ | NO: %d¢      ", u.SecondsRemaining, u.YesCents, u.NoCents)
	c.dirty = true
}

// EndLine terminates the status line so following output starts clean.
func (c *Console) EndLine() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dirty {
		fmt.Fprintln(c.w)
		c.dirty = false
	}
}
