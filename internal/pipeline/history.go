package pipeline

import (
	"time"

	"github.com/GriffinCanCode/tickguard/internal/indicators"
)

// History keeps the most recent ticks of each symbol.
// It is written by the driver goroutine only; calculators get copies.
type History struct {
	capacity int
	rings    map[string]*tickRing
}

type tickRing struct {
	ticks []indicators.Tick
	next  int
	full  bool
}

// NewHistory creates a history holding up to capacity ticks per symbol.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 500
	}
	return &History{capacity: capacity, rings: make(map[string]*tickRing)}
}

// Append records a tick.
func (h *History) Append(t indicators.Tick) {
	r, ok := h.rings[t.Symbol]
	if !ok {
		r = &tickRing{ticks: make([]indicators.Tick, h.capacity)}
		h.rings[t.Symbol] = r
	}
	r.ticks[r.next] = t
	r.next++
	if r.next == len(r.ticks) {
		r.next = 0
		r.full = true
	}
}

// Len returns the number of ticks held for a symbol.
func (h *History) Len(symbol string) int {
	r, ok := h.rings[symbol]
	if !ok {
		return 0
	}
	if r.full {
		return len(r.ticks)
	}
	return r.next
}

// Snapshot copies a symbol's ticks, oldest first, into a Series.
func (h *History) Snapshot(symbol string) indicators.Series {
	s := indicators.Series{Symbol: symbol}
	n := h.Len(symbol)
	if n == 0 {
		return s
	}

	r := h.rings[symbol]
	start := 0
	if r.full {
		start = r.next
	}

	s.Prices = make([]float64, n)
	s.Volumes = make([]float64, n)
	s.Times = make([]time.Time, n)
	for i := 0; i < n; i++ {
		t := r.ticks[(start+i)%len(r.ticks)]
		s.Prices[i] = t.Price
		s.Volumes[i] = t.Volume
		s.Times[i] = t.At
	}

	last := r.ticks[(start+n-1)%len(r.ticks)]
	s.Bid, s.Ask = last.Bid, last.Ask
	return s
}
