package cache

import "time"

// AccessRecord is one cache lookup.
type AccessRecord struct {
	At  time.Time
	Key string
	Hit bool
}

// accessHistory is a fixed-size ring of the most recent access records.
type accessHistory struct {
	records []AccessRecord
	next    int
	full    bool
}

func newAccessHistory(size int) *accessHistory {
	return &accessHistory{records: make([]AccessRecord, size)}
}

func (h *accessHistory) add(r AccessRecord) {
	h.records[h.next] = r
	h.next++
	if h.next == len(h.records) {
		h.next = 0
		h.full = true
	}
}

func (h *accessHistory) len() int {
	if h.full {
		return len(h.records)
	}
	return h.next
}

// each visits records oldest first.
func (h *accessHistory) each(fn func(AccessRecord)) {
	if h.full {
		for _, r := range h.records[h.next:] {
			fn(r)
		}
	}
	for _, r := range h.records[:h.next] {
		fn(r)
	}
}
