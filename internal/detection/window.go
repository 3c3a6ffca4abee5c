package detection

// TemporalWindow is a FIFO of qualifying-event timestamps (monotonic ms).
// Entries are kept in non-decreasing order.
type TemporalWindow struct {
	entries []int64
}

// Push appends ts. A timestamp earlier than the current tail is recorded
// as the tail value so the ordering invariant holds.
func (w *TemporalWindow) Push(ts int64) {
	if n := len(w.entries); n > 0 && ts < w.entries[n-1] {
		ts = w.entries[n-1]
	}
	w.entries = append(w.entries, ts)
}

// Evict drops entries from the front while now-front > maxAge.
func (w *TemporalWindow) Evict(now, maxAge int64) {
	i := 0
	for i < len(w.entries) && now-w.entries[i] > maxAge {
		i++
	}
	if i == 0 {
		return
	}
	// shift in place so the backing array is reused
	n := copy(w.entries, w.entries[i:])
	w.entries = w.entries[:n]
}

// Span returns now minus the oldest retained entry; ok is false when empty.
func (w *TemporalWindow) Span(now int64) (span int64, ok bool) {
	if len(w.entries) == 0 {
		return 0, false
	}
	return now - w.entries[0], true
}

func (w *TemporalWindow) Len() int {
	return len(w.entries)
}

func (w *TemporalWindow) Reset() {
	w.entries = w.entries[:0]
}
