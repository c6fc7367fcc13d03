package joystick

import (
	"flag"
	"fmt"

	"github.com/antongulenko/stella/stella"
	log "github.com/sirupsen/logrus"
	"github.com/splace/joysticks"
)

// Target receives channel updates, implemented by stella.Runner.
type Target interface {
	SetValue(fn stella.SetFunction, channel int, value uint8)
}

// Dimmer fades a range of channels to the position of one axis and flashes them on a button press.
type Dimmer struct {
	Index        int  `yaml:"index"`
	Axis         Axis `yaml:"axis"`
	FlashButton  int  `yaml:"flash_button"`
	FirstChannel int  `yaml:"first_channel"`
	NumChannels  int  `yaml:"channels"`
}

func (d *Dimmer) RegisterFlags() {
	d.Axis.RegisterFlags("js-axis", "dimmer axis")
	flag.IntVar(&d.Index, "js", d.Index, "Joystick device index (negative to disable joystick control)")
	flag.IntVar(&d.FlashButton, "js-flash", d.FlashButton, "Joystick button that flashes the dimmed channels")
	flag.IntVar(&d.FirstChannel, "js-first", d.FirstChannel, "First channel controlled by the joystick")
	flag.IntVar(&d.NumChannels, "js-channels", d.NumChannels, "Number of channels controlled by the joystick")
}

func (d *Dimmer) Enabled() bool {
	return d.Index >= 0
}

// Start connects the joystick and forwards its events. Events are delivered in the background.
func (d *Dimmer) Start(target Target) error {
	js := joysticks.Connect(d.Index)
	if js == nil {
		return fmt.Errorf("Failed to open joystick with index %v", d.Index)
	}
	if !js.ButtonExists(uint8(d.FlashButton)) {
		return fmt.Errorf("Flash button (index %v) does not exist on joystick", d.FlashButton)
	}
	log.Printf("Opened joystick device index %v (%v buttons, %v axes)", d.Index, len(js.Buttons), len(js.HatAxes))

	if err := d.Axis.Notify(js, func(val float32) {
		d.apply(target, stella.SetFade, Level(val))
	}); err != nil {
		return err
	}
	pressed := js.OnClose(uint8(d.FlashButton))
	go func() {
		for range pressed {
			d.apply(target, stella.SetFlashy, 255)
		}
	}()
	go js.ParcelOutEvents()
	return nil
}

func (d *Dimmer) apply(target Target, fn stella.SetFunction, value uint8) {
	for i := 0; i < d.NumChannels; i++ {
		target.SetValue(fn, d.FirstChannel+i, value)
	}
}

// Level maps an axis position in -1..1 to a brightness.
func Level(val float32) uint8 {
	if val <= -1 {
		return 0
	}
	if val >= 1 {
		return 255
	}
	return uint8((val + 1) / 2 * 255)
}
