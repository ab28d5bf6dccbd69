package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxRuns bounds the number of runs kept in memory. When the bound is
// reached the oldest finished run is evicted; queued and running runs are
// never evicted. maxRuns <= 0 means unbounded.
func WithMaxRuns(maxRuns int) Option {
	return func(s *MemoryStore) {
		s.maxRuns = maxRuns
	}
}
