package monitor

import "gonum.org/v1/gonum/stat"

// ring is a small fixed-capacity window used to smooth noisy samples
// before comparing them against a threshold, so a single spiky reading
// can't flap a monitor.
type ring struct {
	values []float64
	cap    int
}

func newRing(capacity int) *ring {
	return &ring{cap: capacity}
}

func (r *ring) add(v float64) {
	r.values = append(r.values, v)
	if len(r.values) > r.cap {
		r.values = r.values[len(r.values)-r.cap:]
	}
}

func (r *ring) full() bool { return len(r.values) >= r.cap }

func (r *ring) mean() float64 {
	if len(r.values) == 0 {
		return 0
	}
	return stat.Mean(r.values, nil)
}

func (r *ring) stdDev() float64 {
	if len(r.values) < 2 {
		return 0
	}
	return stat.StdDev(r.values, nil)
}
