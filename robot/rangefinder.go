package robot

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Rangefinder reads one raw distance sample from the forward-facing
// ultrasonic sensor, in centimeters. A sample of 0 means no echo was received
// within the sensor's window.
type Rangefinder interface {
	Sample(ctx context.Context) (int, error)
}

// MaxDistanceCM is the sonar ceiling. Samples of 0, negative, or beyond the
// ceiling are discarded as invalid.
const MaxDistanceCM = 400

// DefaultSampleGap spaces consecutive sonar pings so one ping's echo cannot
// bleed into the next measurement.
const DefaultSampleGap = 60 * time.Millisecond

// Sampler takes batches of spaced raw readings from the rangefinder.
type Sampler struct {
	rf    Rangefinder
	clock clockwork.Clock
	gap   time.Duration
}

// NewSampler creates a sampler with the default inter-ping gap.
func NewSampler(rf Rangefinder, clock clockwork.Clock) *Sampler {
	return &Sampler{rf: rf, clock: clock, gap: DefaultSampleGap}
}

// WithGap overrides the inter-ping gap. Useful for tests.
func (s *Sampler) WithGap(gap time.Duration) *Sampler {
	s.gap = gap
	return s
}

// Collect takes n raw samples. A sensor error counts as a no-echo reading (0)
// rather than aborting the batch.
func (s *Sampler) Collect(ctx context.Context, n int) []int {
	raw := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			s.clock.Sleep(s.gap)
		}
		sample, err := s.rf.Sample(ctx)
		if err != nil {
			sample = 0
		}
		raw = append(raw, sample)
	}
	return raw
}

// validSamples filters raw readings down to the in-range ones.
func validSamples(raw []int) []int {
	var valid []int
	for _, r := range raw {
		if r > 0 && r <= MaxDistanceCM {
			valid = append(valid, r)
		}
	}
	return valid
}

// sampleStats summarizes a batch of valid readings with integer arithmetic.
type sampleStats struct {
	Min     int
	Max     int
	Average int
	Spread  int
}

func statsOf(valid []int) sampleStats {
	if len(valid) == 0 {
		return sampleStats{}
	}
	stats := sampleStats{Min: valid[0], Max: valid[0]}
	sum := 0
	for _, v := range valid {
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Average = sum / len(valid)
	stats.Spread = stats.Max - stats.Min
	return stats
}
