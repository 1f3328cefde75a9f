package connection

import (
	"context"
	"sync"
)

// gate blocks registry-dependent sources while the registry is not caught
// up. Every handler except the registry's needs the minted ticket to exist.
type gate struct {
	mu   sync.Mutex
	open chan struct{}
}

func newGate() *gate {
	return &gate{open: make(chan struct{})}
}

// Open releases every waiter
func (g *gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
	default:
		close(g.open)
	}
}

// Close makes later waiters block until the next Open
func (g *gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
		g.open = make(chan struct{})
	default:
	}
}

// IsOpen reports whether Wait would return immediately
func (g *gate) IsOpen() bool {
	g.mu.Lock()
	ch := g.open
	g.mu.Unlock()
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the gate is open or ctx is done
func (g *gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.open
	g.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
