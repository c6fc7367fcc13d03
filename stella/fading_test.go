package stella

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, fadeStep uint8, fadeFunc FadeFuncID) *Engine {
	e, err := New(Config{
		Ports:    []PortGroup{{Pins: 8}},
		FadeStep: fadeStep,
		FadeFunc: fadeFunc,
	})
	require.NoError(t, err)
	return e
}

func TestFadeLinear(t *testing.T) {
	a := assert.New(t)
	for _, k := range []uint8{1, 3, 10} {
		e := newTestEngine(t, k, FadeLinear)
		e.SetFade(0, 10)
		a.Equal(uint8(0), e.Value(0), "SetFade must not change the brightness")

		for i := 0; i < 10*int(k); i++ {
			e.Process()
			a.Equal(uint8((i+1)/int(k)), e.Value(0), "step %v with fade step %v", i, k)
		}
		a.Equal(uint8(10), e.Value(0))
		a.False(e.Fading())

		e.AdoptTable()
		for i := 0; i < 5*int(k); i++ {
			e.Process()
		}
		a.Equal(uint8(10), e.Value(0))
		a.Equal(NothingNew, e.Sync(), "no rebuild once the target is reached")
	}
}

func TestFadeDown(t *testing.T) {
	a := assert.New(t)
	e := newTestEngine(t, 1, FadeLinear)
	e.SetFlash(2, 5)
	for i := 4; i >= 0; i-- {
		e.Process()
		a.Equal(uint8(i), e.Value(2))
	}
	e.Process()
	a.Equal(uint8(0), e.Value(2))
}

func TestFadeStepZero(t *testing.T) {
	a := assert.New(t)
	e := newTestEngine(t, 0, FadeLinear)
	e.SetFade(1, 3)
	e.Process()
	e.Process()
	e.Process()
	a.Equal(uint8(3), e.Value(1), "fade step 0 fades on every call")
}

func TestFadeRebuildsOncePerStep(t *testing.T) {
	a := assert.New(t)
	e := newTestEngine(t, 4, FadeLinear)
	e.Process() // Initial table
	e.AdoptTable()
	a.Equal(NothingNew, e.Sync())

	for ch := 0; ch < 8; ch++ {
		e.SetFade(ch, 255)
	}
	for i := 0; i < 2; i++ {
		e.Process()
		a.Equal(NothingNew, e.Sync(), "no rebuild between fade steps")
	}
	e.Process()
	a.Equal(NewValues, e.Sync())
	tab := e.AdoptTable()
	a.Equal(1, tab.ChainLen(0), "all channels share one event")
}

func TestFadeExponential(t *testing.T) {
	a := assert.New(t)
	e := newTestEngine(t, 1, FadeExponential)
	e.SetFade(0, 255)

	steps := 0
	previous := e.Value(0)
	for e.Fading() {
		e.Process()
		steps++
		cur := e.Value(0)
		a.True(cur > previous, "brightness must increase")
		previous = cur
		a.True(steps < 255, "exponential fading must not be slower than linear")
	}
	a.Equal(uint8(255), e.Value(0))
	a.True(steps < 100, "took %v steps", steps)

	e.SetFade(0, 0)
	for e.Fading() {
		e.Process()
	}
	a.Equal(uint8(0), e.Value(0), "must reach the target without overshooting")
}

func TestFadeExponentialNoOvershoot(t *testing.T) {
	a := assert.New(t)
	s := State{count: 1}
	s.Brightness[0] = 200
	s.Fade[0] = 195
	fadeExponential(&s, 0)
	a.Equal(uint8(195), s.Brightness[0])

	s.Brightness[0] = 250
	s.Fade[0] = 255
	fadeExponential(&s, 0)
	a.Equal(uint8(255), s.Brightness[0])
}

func TestParseFadeFunc(t *testing.T) {
	a := assert.New(t)
	id, err := ParseFadeFunc("exponential")
	a.NoError(err)
	a.Equal(FadeExponential, id)
	a.Equal("linear", FadeLinear.String())
	_, err = ParseFadeFunc("gamma")
	a.Error(err)

	e := newTestEngine(t, 1, FadeLinear)
	a.Error(e.SetFadeFunc(7))
	a.NoError(e.SetFadeFunc(FadeExponential))
	a.Equal(FadeExponential, e.FadeFunc())
}
