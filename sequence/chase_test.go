package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChaseValues(t *testing.T) {
	a := assert.New(t)
	s := Chase{PeakRadius: 2}
	values := make([]uint8, 8)

	s.Values(0, values)
	a.Equal([]uint8{255, 128, 0, 0, 0, 0, 0, 128}, values, "peak on the first channel wraps around")
	s.Values(0.5, values)
	a.Equal([]uint8{0, 0, 0, 128, 255, 128, 0, 0}, values)

	s.Bounce = true
	s.Values(0, values)
	a.Equal([]uint8{255, 128, 0, 0, 0, 0, 0, 0}, values, "no wrap around when bouncing")
	s.Values(0.5, values)
	a.Equal(uint8(255), values[7])
	s.Values(0.75, values)
	a.Equal([]uint8{0, 0, 37, 218, 218, 37, 0, 0}, values)
}

func TestChaseRun(t *testing.T) {
	a := assert.New(t)
	s := Chase{
		PeakRadius: 4,
		StepTime:   time.Millisecond,
		TravelTime: 10 * time.Millisecond,
	}
	a.Equal(10, s.StepsPerRound())

	var peaks []int
	err := s.Run(context.Background(), 3, 15, func(values []uint8) error {
		a.Len(values, 15)
		max := 0
		for i, v := range values {
			if v > values[max] {
				max = i
			}
		}
		peaks = append(peaks, max)
		return nil
	})
	a.NoError(err)
	a.Len(peaks, 30)
	a.Equal(0, peaks[0])
	a.Equal(peaks[:10], peaks[10:20])

	failing := errors.New("failed")
	err = s.Run(context.Background(), 1, 15, func([]uint8) error {
		return failing
	})
	a.Error(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err = s.Run(ctx, 5, 15, func([]uint8) error {
		calls++
		return nil
	})
	a.Equal(context.Canceled, err)
	a.Equal(0, calls)

	a.Error(s.Run(context.Background(), 1, 0, func([]uint8) error { return nil }))
}
