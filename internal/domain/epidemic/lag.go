package epidemic

// history is a fixed-size ring of the most recent daily values of I.
type history struct {
	buf   []float64
	next  int
	count int
}

func newHistory(size int) *history {
	if size < 1 {
		size = 1
	}
	return &history{buf: make([]float64, size)}
}

func (h *history) reset() {
	for i := range h.buf {
		h.buf[i] = 0
	}
	h.next, h.count = 0, 0
}

func (h *history) push(v float64) {
	h.buf[h.next] = v
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

// back returns the value pushed k days ago (0 is the newest). Days before the
// first push read as zero.
func (h *history) back(k int) float64 {
	if k < 0 || k >= h.count {
		return 0
	}
	idx := (h.next - 1 - k + 2*len(h.buf)) % len(h.buf)
	return h.buf[idx]
}

// window sums k = from .. from+n-1 days back.
func (h *history) window(from, n int) float64 {
	var sum float64
	for k := from; k < from+n; k++ {
		sum += h.back(k)
	}
	return sum
}
