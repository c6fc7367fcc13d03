// Package joystick maps joystick axes and buttons to stella channels.
package joystick

import (
	"flag"
	"fmt"

	"github.com/splace/joysticks"
)

type Axis struct {
	AxisNumber int `yaml:"number"`

	// Positions between these values are bound to zero
	ZeroFrom float64 `yaml:"zero_from"`
	ZeroTo   float64 `yaml:"zero_to"`

	Invert bool `yaml:"invert"`

	// If true, scale the value range to adjust for zeroFrom/zeroTo and make the entire value range -1..1 available
	ScaleZeroFromTo bool `yaml:"scale_zero"`

	UseY bool `yaml:"use_y"`
}

func (a *Axis) RegisterFlags(prefix string, desc string) {
	flag.IntVar(&a.AxisNumber, prefix, a.AxisNumber, "Index for joystick axis for "+desc)
	flag.BoolVar(&a.Invert, prefix+"Invert", a.Invert, "Invert axis direction of "+desc)
	flag.Float64Var(&a.ZeroFrom, prefix+"ZeroFrom", a.ZeroFrom, "Start of the zero interval of "+desc)
	flag.Float64Var(&a.ZeroTo, prefix+"ZeroTo", a.ZeroTo, "End of the zero interval of "+desc)
	flag.BoolVar(&a.ScaleZeroFromTo, prefix+"ScaleZeroFromTo", a.ScaleZeroFromTo, "Can be used to disable the value range adjustment after filtering based on zeroFrom/zeroTo for "+desc)
	flag.BoolVar(&a.UseY, prefix+"Y", a.UseY, "Use Y instead of X axis for "+desc)
}

func (a *Axis) Notify(js *joysticks.HID, hook func(val float32)) error {
	if !js.HatExists(uint8(a.AxisNumber)) {
		return fmt.Errorf("Joystick axis (%v) does not exist", a.AxisNumber)
	}
	moved := js.OnMove(uint8(a.AxisNumber))
	go func() {
		for event := range moved {
			coords, ok := event.(joysticks.CoordsEvent)
			if !ok {
				continue
			}
			val := coords.X
			if a.UseY {
				val = coords.Y
			}
			hook(a.convert(val))
		}
	}()
	return nil
}

func (a *Axis) convert(val float32) float32 {
	if a.Invert {
		val = -val
	}
	zeroFrom := float32(a.ZeroFrom)
	zeroTo := float32(a.ZeroTo)
	if val >= zeroFrom && val <= zeroTo {
		val = 0
	} else if a.ScaleZeroFromTo {
		// Scale the value range from [-1..zeroFrom] and [zeroTo..1] to [-1..0] and [0..1]
		if val > 0 {
			val = (val - zeroTo) / (1 - zeroTo)
		} else if val < 0 {
			val = (val - zeroFrom) / (1 + zeroFrom)
		}
	}
	return val
}
