// Package sequence generates brightness animations for stella channels.
package sequence

import (
	"context"
	"flag"
	"fmt"
	"math"
	"time"
)

var DefaultChase = Chase{
	PeakRadius: 3,
	StepTime:   50 * time.Millisecond,
	TravelTime: 1300 * time.Millisecond,
}

// Chase moves a brightness peak across the channels. Without Bounce, the peak
// wraps around from the last to the first channel.
type Chase struct {
	Bounce     bool          `yaml:"bounce"`
	PeakRadius float64       `yaml:"peak_radius"` // Number of channels around the peak that are not dark
	StepTime   time.Duration `yaml:"step"`        // Time resolution of the animation
	TravelTime time.Duration `yaml:"travel"`      // Time for the peak to travel across all channels
}

func (s *Chase) RegisterFlags(prefix string) {
	flag.BoolVar(&s.Bounce, prefix+"-bounce", s.Bounce, "Let the peak of the startup sequence bounce instead of circling")
	flag.Float64Var(&s.PeakRadius, prefix+"-radius", s.PeakRadius, "Number of lit channels around the peak of the startup sequence")
	flag.DurationVar(&s.StepTime, prefix+"-step", s.StepTime, "Time resolution of the startup sequence")
	flag.DurationVar(&s.TravelTime, prefix+"-travel", s.TravelTime, "Time for the peak of the startup sequence to travel across all channels")
}

func (s *Chase) StepsPerRound() int {
	if s.StepTime <= 0 {
		return 0
	}
	return int(s.TravelTime / s.StepTime)
}

// Run animates numRounds rounds over numChannels channels. apply receives the
// brightness values of every step and must not keep the slice. Between steps, Run
// sleeps for StepTime.
func (s *Chase) Run(ctx context.Context, numRounds, numChannels int, apply func(values []uint8) error) error {
	steps := s.StepsPerRound()
	if steps <= 0 || numChannels <= 0 || s.PeakRadius <= 0 {
		return fmt.Errorf("Invalid chase sequence: %v steps per round, %v channels, peak radius %v", steps, numChannels, s.PeakRadius)
	}
	values := make([]uint8, numChannels)
	total := steps * numRounds
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Values(float64(i%steps)/float64(steps), values)
		if err := apply(values); err != nil {
			return fmt.Errorf("Error during chase sequence, step %v of %v: %v", i, total, err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(s.StepTime):
		}
	}
	return nil
}

// Values fills values with the brightness of all channels at the given progress (0..1) of one round.
func (s *Chase) Values(progress float64, values []uint8) {
	n := float64(len(values))
	var peak float64
	if s.Bounce {
		// Forward in the first half of the round, backward in the second
		peak = 2 * progress * (n - 1)
		if peak > n-1 {
			peak = 2*(n-1) - peak
		}
	} else {
		peak = progress * n
	}
	for i := range values {
		dist := math.Abs(float64(i) - peak)
		if !s.Bounce {
			// Distance wraps around at both ends
			dist = math.Min(dist, n-dist)
		}
		if dist >= s.PeakRadius {
			values[i] = 0
		} else {
			v := (math.Cos(dist/s.PeakRadius*math.Pi) + 1) / 2
			values[i] = uint8(math.Round(v * 255))
		}
	}
}
