package stella

import "fmt"

// Fader moves the brightness of one channel a single step toward its fade target.
type Fader interface {
	Fade(s *State, channel int)
}

type FaderFunc func(s *State, channel int)

func (f FaderFunc) Fade(s *State, channel int) {
	f(s, channel)
}

type FadeFuncID uint8

const (
	FadeLinear FadeFuncID = iota
	FadeExponential
)

var fadeFuncs = map[FadeFuncID]Fader{
	FadeLinear:      FaderFunc(fadeLinear),
	FadeExponential: FaderFunc(fadeExponential),
}

var fadeFuncNames = map[string]FadeFuncID{
	"linear":      FadeLinear,
	"exponential": FadeExponential,
}

func ParseFadeFunc(name string) (FadeFuncID, error) {
	if id, ok := fadeFuncNames[name]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("Unknown fade function %q (available: linear, exponential)", name)
}

func (id FadeFuncID) String() string {
	for name, other := range fadeFuncNames {
		if other == id {
			return name
		}
	}
	return fmt.Sprintf("fade function %d", uint8(id))
}

func fadeLinear(s *State, ch int) {
	if s.Brightness[ch] > s.Fade[ch] {
		s.Brightness[ch]--
	} else if s.Brightness[ch] < s.Fade[ch] {
		s.Brightness[ch]++
	}
}

// Steps grow with the brightness, which looks more even to the eye than linear steps.
func fadeExponential(s *State, ch int) {
	cur, target := s.Brightness[ch], s.Fade[ch]
	step := cur/16 + 1
	if cur > target {
		if cur-target <= step {
			s.Brightness[ch] = target
		} else {
			s.Brightness[ch] = cur - step
		}
	} else if cur < target {
		if target-cur <= step {
			s.Brightness[ch] = target
		} else {
			s.Brightness[ch] = cur + step
		}
	}
}

// Process must be called once per main loop iteration. Every FadeStep calls, all
// channels that have not reached their fade target are moved one step. A pending
// table rebuild is done before returning.
func (e *Engine) Process() {
	if e.fadeCounter > 0 {
		e.fadeCounter--
	}
	if e.fadeCounter == 0 {
		fader := fadeFuncs[e.fadeFunc]
		changed := false
		for i := 0; i < e.state.count; i++ {
			if !e.state.fading(i) {
				continue
			}
			fader.Fade(&e.state, i)
			changed = true
		}
		if changed {
			e.markUpdate()
		}
		e.fadeCounter = e.fadeStep
	}

	if e.Sync() == UpdateValues {
		e.sort()
	}
}

// Fading reports whether any channel has not reached its fade target yet.
func (e *Engine) Fading() bool {
	for i := 0; i < e.state.count; i++ {
		if e.state.fading(i) {
			return true
		}
	}
	return false
}
