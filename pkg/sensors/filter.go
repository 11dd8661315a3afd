package sensors

// rollingFilter is a fixed-capacity, oldest-evicted history of raw samples
// smoothed with an arithmetic mean. Length never exceeds capacity.
type rollingFilter struct {
	samples  []float64
	capacity int
}

func newRollingFilter(capacity int) *rollingFilter {
	return &rollingFilter{
		samples:  make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a raw sample, evicting the oldest on overflow, and returns
// the mean of the retained window. With a single sample the filtered value
// equals that sample.
func (f *rollingFilter) Push(value float64) float64 {
	if len(f.samples) == f.capacity {
		copy(f.samples, f.samples[1:])
		f.samples[len(f.samples)-1] = value
	} else {
		f.samples = append(f.samples, value)
	}

	sum := 0.0
	for _, s := range f.samples {
		sum += s
	}
	return sum / float64(len(f.samples))
}

func (f *rollingFilter) Len() int {
	return len(f.samples)
}

func (f *rollingFilter) Reset() {
	f.samples = f.samples[:0]
}
