// Package softpwm drives output ports from the timetables of a stella engine.
// It takes the role of the timer interrupts on a microcontroller: at the start of
// every cycle it adopts the newest table and switches on the full-on pins, then it
// lights the pins of every event when the tick counter passes the event's value.
package softpwm

import (
	"context"
	"time"

	"github.com/antongulenko/stella/stella"
	log "github.com/sirupsen/logrus"
)

// Output receives the levels of all port groups. Only pins in the engine's port masks are touched.
type Output interface {
	WritePorts(ports [stella.MaxPortGroups]byte) error
}

type TableSource interface {
	AdoptTable() *stella.Table
}

type Driver struct {
	Engine TableSource
	Output Output

	// Duration of one timer tick. A cycle takes stella.CycleTicks ticks.
	Tick time.Duration

	// Sleep is used to wait between events. Defaults to time.Sleep.
	Sleep func(d time.Duration)

	// Number of consecutive write errors after which Run gives up. 0 means never.
	MaxErrors int

	errors int
}

// Run executes PWM cycles until the context is cancelled or the output keeps failing.
func (d *Driver) Run(ctx context.Context) error {
	log.Debugf("Software PWM running with %v per tick, cycle frequency %.2f Hz", d.Tick, d.Frequency())
	for ctx.Err() == nil {
		if err := d.Cycle(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) Frequency() float64 {
	if d.Tick <= 0 {
		return 0
	}
	return float64(time.Second) / float64(d.Tick*stella.CycleTicks)
}

// Cycle runs a single PWM cycle.
func (d *Driver) Cycle() error {
	if d.Sleep == nil {
		d.Sleep = time.Sleep
	}
	table := d.Engine.AdoptTable()

	// Overflow: everything off, except for the full-on pins
	var ports [stella.MaxPortGroups]byte
	for p := 0; p < table.NumPorts(); p++ {
		ports[p] = table.FullOn(p)
	}
	if err := d.write(ports); err != nil {
		return err
	}

	// Compare matches. Pins of an event are lit once the counter has passed its value.
	counter := 0
	pending := false
	var err error
	table.Walk(func(ev stella.Event) {
		if err != nil {
			return
		}
		at := int(ev.Value) + 1
		if at > counter {
			if pending {
				if err = d.write(ports); err != nil {
					return
				}
				pending = false
			}
			d.Sleep(time.Duration(at-counter) * d.Tick)
			counter = at
		}
		ports[ev.Port] |= ev.Mask
		pending = true
	})
	if err != nil {
		return err
	}
	if pending {
		if err := d.write(ports); err != nil {
			return err
		}
	}
	d.Sleep(time.Duration(stella.CycleTicks-counter) * d.Tick)
	return nil
}

func (d *Driver) write(ports [stella.MaxPortGroups]byte) error {
	err := d.Output.WritePorts(ports)
	if err == nil {
		d.errors = 0
		return nil
	}
	d.errors++
	log.Errorf("Failed to write PWM output (%v consecutive errors): %v", d.errors, err)
	if d.MaxErrors > 0 && d.errors >= d.MaxErrors {
		return err
	}
	return nil
}
