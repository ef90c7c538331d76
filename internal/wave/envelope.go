package wave

// Envelope is a downsampled min/max rendering of a PCM window. Mins and Maxs
// have equal length and Mins[i] <= Maxs[i] for every index.
type Envelope struct {
	Mins []float64
	Maxs []float64
}

func (e Envelope) Len() int { return len(e.Mins) }

func (e Envelope) Empty() bool { return len(e.Mins) == 0 }

// Extract collapses samples into at most resolution (min,max) buckets.
// When the window holds no more samples than requested, the samples are
// returned unchanged as both mins and maxs; an empty window yields an empty
// envelope. Otherwise the samples are split into resolution buckets of
// floor(len/resolution) samples each and the tail that does not fill a full
// set of buckets is dropped.
func Extract(samples []float64, resolution int) Envelope {
	if resolution < 1 {
		resolution = 1
	}
	if len(samples) == 0 {
		return Envelope{}
	}
	if len(samples) <= resolution {
		mins := make([]float64, len(samples))
		maxs := make([]float64, len(samples))
		copy(mins, samples)
		copy(maxs, samples)
		return Envelope{Mins: mins, Maxs: maxs}
	}

	bucket := len(samples) / resolution
	if bucket < 1 {
		bucket = 1
	}
	mins := make([]float64, resolution)
	maxs := make([]float64, resolution)
	for i := 0; i < resolution; i++ {
		run := samples[i*bucket : (i+1)*bucket]
		lo, hi := run[0], run[0]
		for _, s := range run[1:] {
			if s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
		}
		mins[i] = lo
		maxs[i] = hi
	}
	return Envelope{Mins: mins, Maxs: maxs}
}
