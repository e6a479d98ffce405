package kafka

import "sync"

// watermark tracks, for one partition, the highest offset up to which every
// message has finished processing (in delivery order), even though
// handlers for later offsets may finish first. complete(offset) records
// that offset's handler returned and reports the new contiguous watermark
// and whether it moved, so the caller can commit it.
type watermark struct {
	mu        sync.Mutex
	next      int64 // lowest offset not yet known complete
	completed map[int64]bool
}

func newWatermark(startOffset int64) *watermark {
	return &watermark{next: startOffset, completed: make(map[int64]bool)}
}

// complete records offset as finished and returns the new watermark
// (highest contiguously-completed offset) and whether it advanced.
func (w *watermark) complete(offset int64) (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.completed[offset] = true

	advanced := false
	for w.completed[w.next] {
		delete(w.completed, w.next)
		w.next++
		advanced = true
	}
	// w.next is now the first *not yet complete* offset; the committed
	// watermark is one below that.
	return w.next - 1, advanced
}
