package stella

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

const noEvent = -1

// Event switches the pins in Mask of port group Port when the cycle counter passes Value.
// Value is the distance from full brightness (255 - brightness).
type Event struct {
	Value uint8
	Mask  byte
	Port  int
	next  int
}

type tablePort struct {
	head   int
	fullOn byte // Pins that stay on for the whole cycle
}

// Table is one buffer of the double buffered timetable. Events are linked through
// indices into a fixed arena with one slot per channel.
type Table struct {
	ports    [MaxPortGroups]tablePort
	numPorts int
	events   [MaxChannels]Event
}

func (t *Table) reset(numPorts int) {
	t.numPorts = numPorts
	for i := range t.ports {
		t.ports[i] = tablePort{head: noEvent}
	}
}

func (t *Table) NumPorts() int {
	return t.numPorts
}

func (t *Table) FullOn(port int) byte {
	return t.ports[port].fullOn
}

// Chain calls fn for every event of one port group in ascending order of Value.
func (t *Table) Chain(port int, fn func(ev Event)) {
	for i := t.ports[port].head; i != noEvent; i = t.events[i].next {
		fn(t.events[i])
	}
}

func (t *Table) ChainLen(port int) (res int) {
	t.Chain(port, func(Event) { res++ })
	return
}

// Walk calls fn for the events of all port groups, merged in ascending order of Value.
// Events with equal values are visited in port group order.
func (t *Table) Walk(fn func(ev Event)) {
	var cursor [MaxPortGroups]int
	for p := 0; p < t.numPorts; p++ {
		cursor[p] = t.ports[p].head
	}
	for {
		next := -1
		for p := 0; p < t.numPorts; p++ {
			if cursor[p] == noEvent {
				continue
			}
			if next == -1 || t.events[cursor[p]].Value < t.events[cursor[next]].Value {
				next = p
			}
		}
		if next == -1 {
			return
		}
		ev := t.events[cursor[next]]
		cursor[next] = ev.next
		fn(ev)
	}
}

// PortsAt returns the pin levels of every port group at the given tick of a cycle.
// Full-on pins are lit throughout, the pins of an event are lit once the counter is past its value.
// This way a channel is lit for exactly 'brightness' out of CycleTicks ticks.
func (t *Table) PortsAt(counter uint8) (res [MaxPortGroups]byte) {
	for p := 0; p < t.numPorts; p++ {
		res[p] = t.ports[p].fullOn
		for i := t.ports[p].head; i != noEvent && t.events[i].Value < counter; i = t.events[i].next {
			res[p] |= t.events[i].Mask
		}
	}
	return
}

func (t *Table) String() string {
	var b strings.Builder
	for p := 0; p < t.numPorts; p++ {
		fmt.Fprintf(&b, "Port %v: full on %08b", p, t.ports[p].fullOn)
		t.Chain(p, func(ev Event) {
			fmt.Fprintf(&b, ", %v %08b", ev.Value, ev.Mask)
		})
		b.WriteString("\n")
	}
	return b.String()
}

// sort rebuilds the off-line table from the current brightness values. Channels at 0%
// are left out, channels at 100% only set their bit in the full-on mask of their port.
// All other channels are inserted into the chain of their port group, ascending by value.
// Channels with the same value on the same port share one event.
// Must not be called while a rebuilt table is waiting to be adopted.
func (e *Engine) sort() {
	t := e.calcTable()
	t.reset(e.numPorts)

	for i := 0; i < e.state.count; i++ {
		pin := e.pins[i]
		brightness := e.state.Brightness[i]
		t.events[i] = Event{
			Value: 255 - brightness,
			Mask:  pin.mask,
			Port:  pin.port,
			next:  noEvent,
		}

		if brightness == 0 {
			continue
		}
		port := &t.ports[pin.port]
		if brightness == 255 {
			port.fullOn |= pin.mask
			continue
		}
		if port.head == noEvent {
			port.head = i
			continue
		}

		value := t.events[i].Value
		current, last := port.head, noEvent
		for {
			cur := &t.events[current]
			if cur.Value == value {
				cur.Mask |= pin.mask
				break
			} else if value < cur.Value && last == noEvent {
				t.events[i].next = current
				port.head = i
				break
			} else if value < cur.Value {
				t.events[i].next = current
				t.events[last].next = i
				break
			} else if cur.next == noEvent {
				cur.next = i
				break
			}
			last = current
			current = cur.next
		}
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("Stella timetable rebuilt:\n%v", t)
	}
	e.sync.setState(NewValues)
}
