// Package stella is a software PWM dimmer engine. Channel brightness values are
// sorted into a chain of switch events per output port, which a timer driven
// consumer walks once per PWM cycle.
package stella

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	MaxPortGroups = 2
	PinsPerPort   = 8
	MaxChannels   = MaxPortGroups * PinsPerPort

	// Length of one PWM cycle in timer ticks
	CycleTicks = 256

	DefaultFadeStep = 10
)

type PortGroup struct {
	Name   string `yaml:"name"`
	Pins   uint8  `yaml:"pins"`   // Number of consecutive pins used on this port (1..8)
	Offset uint8  `yaml:"offset"` // Bit of the first pin
}

func (p PortGroup) Mask() byte {
	return byte(((1 << p.Pins) - 1) << p.Offset)
}

func (p PortGroup) validate() error {
	if p.Pins == 0 || int(p.Pins)+int(p.Offset) > PinsPerPort {
		return fmt.Errorf("Port group %q: %v pins at offset %v do not fit into %v bit", p.Name, p.Pins, p.Offset, PinsPerPort)
	}
	return nil
}

type Config struct {
	Ports    []PortGroup
	FadeStep uint8
	FadeFunc FadeFuncID
}

var DefaultConfig = Config{
	Ports: []PortGroup{
		{Name: "A", Pins: 8},
	},
	FadeStep: DefaultFadeStep,
	FadeFunc: FadeLinear,
}

type channelPin struct {
	port int
	mask byte
}

// Engine holds the channel state, both timetables and the sync word.
// All methods except AdoptTable and Sync must be called from one goroutine (see Runner).
type Engine struct {
	state    State
	ports    [MaxPortGroups]PortGroup
	numPorts int
	pins     [MaxChannels]channelPin

	fadeStep    uint8
	fadeCounter uint8
	fadeFunc    FadeFuncID

	tables [2]Table
	sync   syncWord

	storage Storage
}

func New(conf Config) (*Engine, error) {
	if len(conf.Ports) == 0 || len(conf.Ports) > MaxPortGroups {
		return nil, fmt.Errorf("Need 1 to %v port groups, got %v", MaxPortGroups, len(conf.Ports))
	}
	if _, ok := fadeFuncs[conf.FadeFunc]; !ok {
		return nil, fmt.Errorf("Unknown fade function %v", conf.FadeFunc)
	}
	e := &Engine{
		numPorts: len(conf.Ports),
		fadeStep: conf.FadeStep,
		fadeFunc: conf.FadeFunc,
	}
	numChannels := 0
	for i, port := range conf.Ports {
		if err := port.validate(); err != nil {
			return nil, err
		}
		e.ports[i] = port
		for bit := uint8(0); bit < port.Pins; bit++ {
			e.pins[numChannels] = channelPin{port: i, mask: 1 << (bit + port.Offset)}
			numChannels++
		}
	}
	e.state.count = numChannels
	e.fadeCounter = e.fadeStep
	e.tables[0].reset(e.numPorts)
	e.tables[1].reset(e.numPorts)
	e.sort()
	log.Debugf("Stella engine with %v channels on %v port group(s), cycle frequency depends on the consumer tick", numChannels, e.numPorts)
	return e, nil
}

func (e *Engine) ChannelCount() int {
	return e.state.count
}

func (e *Engine) Ports() []PortGroup {
	return e.ports[:e.numPorts]
}

// PortMask returns all pins of a port group that are driven by the engine
func (e *Engine) PortMask(port int) byte {
	return e.ports[port].Mask()
}

// ChannelPin returns the port group and pin mask a channel is mapped to.
func (e *Engine) ChannelPin(channel int) (int, byte) {
	p := e.pins[channel]
	return p.port, p.mask
}
