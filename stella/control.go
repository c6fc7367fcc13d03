package stella

import "fmt"

type SetFunction uint8

const (
	SetImmediately SetFunction = iota
	SetFade
	SetFlashy
	SetImmediatelyRelative
)

func (f SetFunction) String() string {
	switch f {
	case SetImmediately:
		return "immediately"
	case SetFade:
		return "fade"
	case SetFlashy:
		return "flashy"
	case SetImmediatelyRelative:
		return "relative"
	default:
		return fmt.Sprintf("set function %d", uint8(f))
	}
}

// SetValue applies one of the set functions to a channel. Invalid channels and
// unknown functions are ignored.
func (e *Engine) SetValue(fn SetFunction, channel int, value uint8) {
	switch fn {
	case SetImmediately:
		e.SetImmediate(channel, value)
	case SetFade:
		e.SetFade(channel, value)
	case SetFlashy:
		e.SetFlash(channel, value)
	case SetImmediatelyRelative:
		e.SetRelative(channel, value)
	}
}

func (e *Engine) SetImmediate(channel int, value uint8) {
	if !e.state.valid(channel) {
		return
	}
	e.state.SetBrightness(channel, value)
	e.state.SetFade(channel, value)
	e.markUpdate()
}

// SetFade only changes the fade target. The table is rebuilt once fading changes the brightness.
func (e *Engine) SetFade(channel int, value uint8) {
	e.state.SetFade(channel, value)
}

// SetFlash jumps to the value and fades out to zero afterwards.
func (e *Engine) SetFlash(channel int, value uint8) {
	if !e.state.valid(channel) {
		return
	}
	e.state.SetBrightness(channel, value)
	e.state.SetFade(channel, 0)
	e.markUpdate()
}

// SetRelative adds the value, interpreted as signed 8 bit, to brightness and fade target.
// The result wraps around: callers are responsible for staying inside 0..255.
func (e *Engine) SetRelative(channel int, delta uint8) {
	if !e.state.valid(channel) {
		return
	}
	d := int8(delta)
	e.state.SetBrightness(channel, uint8(int8(e.state.Brightness[channel])+d))
	e.state.SetFade(channel, uint8(int8(e.state.Fade[channel])+d))
	e.markUpdate()
}

// Dmx applies a control frame: byte 0 selects the set function, the following bytes
// are the values for channels 0, 1, ... Surplus values are ignored.
func (e *Engine) Dmx(frame []byte) {
	if len(frame) < 2 {
		return
	}
	n := len(frame) - 1
	if n > e.state.count {
		n = e.state.count
	}
	fn := SetFunction(frame[0])
	for i := 0; i < n; i++ {
		e.SetValue(fn, i, frame[i+1])
	}
}

func (e *Engine) SetFadeStep(step uint8) {
	e.fadeStep = step
}

func (e *Engine) FadeStep() uint8 {
	return e.fadeStep
}

func (e *Engine) SetFadeFunc(id FadeFuncID) error {
	if _, ok := fadeFuncs[id]; !ok {
		return fmt.Errorf("Unknown fade function %v", id)
	}
	e.fadeFunc = id
	return nil
}

func (e *Engine) FadeFunc() FadeFuncID {
	return e.fadeFunc
}

// Value returns the current brightness. The channel must be valid.
func (e *Engine) Value(channel int) uint8 {
	return e.state.GetBrightness(channel)
}

// FadeTarget returns the fade target. The channel must be valid.
func (e *Engine) FadeTarget(channel int) uint8 {
	return e.state.GetFade(channel)
}

type OutputChannels struct {
	ChannelCount int
	PwmChannels  []byte
}

// Output returns a snapshot of all brightness values.
func (e *Engine) Output() OutputChannels {
	res := OutputChannels{
		ChannelCount: e.state.count,
		PwmChannels:  make([]byte, e.state.count),
	}
	copy(res.PwmChannels, e.state.Brightness[:e.state.count])
	return res
}

// MarshalBinary encodes the snapshot as channel count followed by one byte per channel.
func (o OutputChannels) MarshalBinary() ([]byte, error) {
	return append([]byte{byte(o.ChannelCount)}, o.PwmChannels...), nil
}
