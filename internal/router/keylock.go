package router

import "sync"

const defaultStripes = 64

// keyLock serializes work per token. Tokens map onto a fixed set of stripes so
// memory stays bounded however many tokens are seen.
type keyLock struct {
	stripes []sync.Mutex
}

func newKeyLock(n int) *keyLock {
	if n <= 0 {
		n = defaultStripes
	}
	return &keyLock{stripes: make([]sync.Mutex, n)}
}

// lock acquires the stripe of key and returns its release func
func (l *keyLock) lock(key uint64) func() {
	m := &l.stripes[key%uint64(len(l.stripes))]
	m.Lock()
	return m.Unlock
}
