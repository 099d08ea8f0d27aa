package indicators

import "time"

// Tick is one market update for a symbol.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
	At     time.Time `json:"at"`
}

// Series is an immutable, oldest-first snapshot of a symbol's recent ticks.
// Calculators may run on another goroutine, so a Series never aliases live buffers.
type Series struct {
	Symbol  string
	Prices  []float64
	Volumes []float64
	Times   []time.Time
	Bid     float64
	Ask     float64
}

// Len returns the number of ticks in the snapshot.
func (s Series) Len() int {
	return len(s.Prices)
}

// Last returns the most recent price.
func (s Series) Last() (float64, bool) {
	if len(s.Prices) == 0 {
		return 0, false
	}
	return s.Prices[len(s.Prices)-1], true
}

// Tail returns a Series restricted to the last n ticks.
func (s Series) Tail(n int) Series {
	if n <= 0 || n >= len(s.Prices) {
		return s
	}
	from := len(s.Prices) - n
	out := s
	out.Prices = s.Prices[from:]
	if len(s.Volumes) == len(s.Prices) {
		out.Volumes = s.Volumes[from:]
	}
	if len(s.Times) == len(s.Prices) {
		out.Times = s.Times[from:]
	}
	return out
}
