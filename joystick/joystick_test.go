package joystick

import (
	"testing"

	"github.com/antongulenko/stella/stella"
	"github.com/stretchr/testify/assert"
)

func TestAxisConvert(t *testing.T) {
	a := assert.New(t)
	axis := Axis{ZeroFrom: -0.2, ZeroTo: 0.2, ScaleZeroFromTo: true}
	test := func(in, expected float32) {
		a.InDelta(expected, axis.convert(in), 0.0001, "input %v", in)
	}
	test(0, 0)
	test(0.1, 0)
	test(-0.2, 0)
	test(1, 1)
	test(-1, -1)
	test(0.6, 0.5)
	test(-0.6, -0.5)

	axis.Invert = true
	test(1, -1)
	test(-0.6, 0.5)

	axis.ScaleZeroFromTo = false
	test(-0.6, 0.6)
}

func TestLevel(t *testing.T) {
	a := assert.New(t)
	a.Equal(uint8(0), Level(-1))
	a.Equal(uint8(0), Level(-3))
	a.Equal(uint8(127), Level(0))
	a.Equal(uint8(255), Level(1))
	a.Equal(uint8(255), Level(1.5))
}

type set struct {
	fn      stella.SetFunction
	channel int
	value   uint8
}

type recordingTarget []set

func (r *recordingTarget) SetValue(fn stella.SetFunction, channel int, value uint8) {
	*r = append(*r, set{fn, channel, value})
}

func TestApply(t *testing.T) {
	d := Dimmer{FirstChannel: 2, NumChannels: 3}
	var target recordingTarget
	d.apply(&target, stella.SetFade, 40)
	assert.Equal(t, recordingTarget{{stella.SetFade, 2, 40}, {stella.SetFade, 3, 40}, {stella.SetFade, 4, 40}}, target)
}
