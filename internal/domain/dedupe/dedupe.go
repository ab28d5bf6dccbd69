// Package dedupe remembers which run answers a given request fingerprint so
// identical submissions can share one run.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize bounds the memo unless WithMaxSize says otherwise.
const defaultMaxSize = 10000

// Memo maps request fingerprints to run IDs.
type Memo interface {
	// Lookup returns the run ID recorded for fingerprint.
	Lookup(ctx context.Context, fingerprint string) (string, bool)

	// Remember atomically records runID for fingerprint unless one is already
	// recorded. It returns the run ID now associated with fingerprint and
	// whether that ID was already present.
	Remember(ctx context.Context, fingerprint, runID string) (string, bool)

	// Forget drops fingerprint, e.g. when its run failed or could not be queued.
	Forget(ctx context.Context, fingerprint string)

	Size() int64
}

// node is an entry of the insertion-ordered list; head is the newest.
type node struct {
	key   string
	runID string
	prev  *node
	next  *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryMemo keeps entries in a map and, when bounded, in a doubly linked
// list so the oldest entry can be evicted in O(1).
type inMemoryMemo struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node
	tail     *node
	maxSize  int // <= 0 means unbounded
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryMemo creates a memo with FIFO eviction when bounded.
func NewInMemoryMemo(opts ...Option) Memo {
	m := &inMemoryMemo{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(m)
	}
	m.entries = make(map[string]*node)
	m.nodePool = sync.Pool{New: func() interface{} { return &node{} }}
	return m
}

func (m *inMemoryMemo) Lookup(_ context.Context, fingerprint string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.entries[fingerprint]; ok {
		return n.runID, true
	}
	return "", false
}

func (m *inMemoryMemo) Remember(_ context.Context, fingerprint, runID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, ok := m.entries[fingerprint]; ok {
		return n.runID, true
	}
	if m.maxSize > 0 && len(m.entries) >= m.maxSize {
		m.evictOldest()
	}

	n := m.nodePool.Get().(*node)
	n.key, n.runID = fingerprint, runID
	n.next = m.head
	if m.head != nil {
		m.head.prev = n
	}
	m.head = n
	if m.tail == nil {
		m.tail = n
	}
	m.entries[fingerprint] = n
	m.size.Add(1)
	return runID, false
}

func (m *inMemoryMemo) Forget(_ context.Context, fingerprint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.entries[fingerprint]; ok {
		m.unlink(n)
	}
}

// evictOldest drops the tail. Must be called with m.mu held.
func (m *inMemoryMemo) evictOldest() {
	if m.tail != nil {
		m.unlink(m.tail)
	}
}

// unlink removes n from the list and the map. Must be called with m.mu held.
func (m *inMemoryMemo) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		m.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		m.tail = n.prev
	}
	delete(m.entries, n.key)
	n.reset()
	m.nodePool.Put(n)
	m.size.Add(-1)
}

// Size returns the current number of entries.
func (m *inMemoryMemo) Size() int64 {
	return m.size.Load()
}
