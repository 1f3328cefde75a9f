package notifier

import (
	"sync"
	"time"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

// Presence tracks the hub connections that are currently open
type Presence struct {
	mu    sync.RWMutex
	conns map[string]time.Time
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[string]time.Time)}
}

// Add records a connection and returns the number of open connections
func (p *Presence) Add(connectionID string, at time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[connectionID] = at
	return len(p.conns)
}

// Remove forgets a connection, returning how long it was open
func (p *Presence) Remove(connectionID string, at time.Time) (time.Duration, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	since, ok := p.conns[connectionID]
	delete(p.conns, connectionID)
	if !ok {
		return 0, len(p.conns)
	}
	return at.Sub(since), len(p.conns)
}

// Count returns the number of open connections
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}

// StatusBook remembers the latest lifecycle status of every source
type StatusBook struct {
	mu       sync.RWMutex
	statuses map[domain.Source]domain.SourceStatus
}

func NewStatusBook() *StatusBook {
	return &StatusBook{statuses: make(map[domain.Source]domain.SourceStatus)}
}

// Set stores status unless a newer one is already known
func (b *StatusBook) Set(status domain.SourceStatus) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.statuses[status.Source]; ok && current.ChangedAt.After(status.ChangedAt) {
		return false
	}
	b.statuses[status.Source] = status
	return true
}

// All returns one status per source in source order. Sources never heard
// from are reported as disconnected.
func (b *StatusBook) All() []domain.SourceStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.SourceStatus, 0, len(domain.AllSources))
	for _, source := range domain.AllSources {
		status, ok := b.statuses[source]
		if !ok {
			status = domain.SourceStatus{Source: source, State: domain.SourceStateDisconnected}
		}
		out = append(out, status)
	}
	return out
}
