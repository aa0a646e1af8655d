// Package identity issues identifiers for users and exercises.
package identity

import (
	"strconv"
	"sync"

	"github.com/google/uuid"

	"example.com/exercisetracker/internal/domain"
)

// Counter issues process-local, monotonically increasing numeric identifiers per kind.
// Sequences reset on restart, so it only suits ephemeral stores.
type Counter struct {
	mu   sync.Mutex
	next map[domain.IDKind]uint64
}

// NewCounter constructs a Counter whose sequences start at 1.
func NewCounter() *Counter {
	return &Counter{next: make(map[domain.IDKind]uint64)}
}

// Next implements domain.IDAllocator.
func (c *Counter) Next(kind domain.IDKind) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next[kind]++
	return strconv.FormatUint(c.next[kind], 10)
}

// UUIDAllocator issues random v4 UUIDs, safe to share across restarts and instances.
type UUIDAllocator struct{}

// Next implements domain.IDAllocator.
func (UUIDAllocator) Next(domain.IDKind) string {
	return uuid.NewString()
}
