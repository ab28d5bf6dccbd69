package dedupe

// Option applies a configuration option to the in-memory memo.
type Option func(*inMemoryMemo)

// WithMaxSize bounds the number of fingerprints kept. When full, the oldest
// entry is evicted. maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(m *inMemoryMemo) {
		m.maxSize = maxSize
	}
}
