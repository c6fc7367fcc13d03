// Package mcp23017 drives the two 8 bit ports of an MCP23017 I2C GPIO expander.
// Port A and B are used as the two stella port groups.
package mcp23017

import (
	"github.com/antongulenko/stella/ft260"
	"github.com/antongulenko/stella/stella"
	log "github.com/sirupsen/logrus"
)

// Default bits all zero, except IODIR

// ============== General IO configuration
// IODIR: 0: output, 1: input
// GPIO: Reading reads pin values. Writing modifies to OLAT.
// OLAT: Output values ("latches")
// GPPU: 1: enable internal pull-up for input pins (100 kOhm)

// Register addresses when the BANK bit in IOCON is cleared (default). Writes
// auto-increment, so A and B of one register can be written together.
const (
	IODIR_A_PAIRED = byte(iota)
	IODIR_B_PAIRED
	IPOL_A_PAIRED
	IPOL_B_PAIRED
	GPINTEN_A_PAIRED
	GPINTEN_B_PAIRED
	DEFVAL_A_PAIRED
	DEFVAL_B_PAIRED
	INTCON_A_PAIRED
	INTCON_B_PAIRED
	IOCON_PAIRED
	_ // IOCON
	GPPU_A_PAIRED
	GPPU_B_PAIRED
	INTF_A_PAIRED
	INTF_B_PAIRED
	INTCAP_A_PAIRED
	INTCAP_B_PAIRED
	GPIO_A_PAIRED
	GPIO_B_PAIRED
	OLAT_A_PAIRED
	OLAT_B_PAIRED

	IODIR_PAIRED = IODIR_A_PAIRED
	GPPU_PAIRED  = GPPU_A_PAIRED
	OLAT_PAIRED  = OLAT_A_PAIRED
)

const (
	_                = byte(1 << iota)
	IOCON_BIT_INTPOL // 1: INT pins active-high 0: INT pins active-low
	IOCON_BIT_ODR    // (overrides INTPOL) 1: INT pins are open-drain 0: active output (INTPOL sets polarity)
	IOCON_BIT_HAEN   // Enable hardware address pins (zero otherwise)
	IOCON_BIT_DISSLW // 0: slew rate control for SDA output enabled 1: disabled
	IOCON_BIT_SEQOP  // 0: sequential operation enabled 1: disabled (address stays after read/write)
	IOCON_BIT_MIRROR // 0: INT pins not mirrored 1: INT pins mirrored (both high if one is high)
	IOCON_BIT_BANK   // 1: registers grouped in banks 0: registers paired
)

const (
	ADDRESS     = byte(0x20) // 0010 0000
	MAX_ADDRESS = byte(0x27) // 0010 0111

	// Values for IODIR registers
	INPUT  = byte(0xFF)
	OUTPUT = byte(0x00)

	// IOCON value used by the Expander: paired registers, sequential operation, hardware address pins
	ioconConfig = IOCON_BIT_HAEN
)

// Expander implements softpwm.Output. Only the pins in Masks are configured as
// outputs, all other pins stay inputs with pull-ups.
type Expander struct {
	Bus   ft260.I2cBus
	Addr  byte
	Masks [stella.MaxPortGroups]byte

	current  [stella.MaxPortGroups]byte
	optimize bool
}

func (m *Expander) Init() error {
	log.Printf("Initializing GPIO expander at %#02x (port A mask %08b, port B mask %08b)...", m.Addr, m.Masks[0], m.Masks[1])
	if err := m.Bus.I2cWrite(m.Addr, IOCON_PAIRED, ioconConfig); err != nil {
		return err
	}
	if err := m.Bus.I2cWrite(m.Addr, GPPU_PAIRED, ^m.Masks[0], ^m.Masks[1]); err != nil {
		return err
	}
	// Latch zeros before switching the pins to output
	m.optimize = false
	if err := m.WritePorts([stella.MaxPortGroups]byte{}); err != nil {
		return err
	}
	return m.Bus.I2cWrite(m.Addr, IODIR_PAIRED, ^m.Masks[0], ^m.Masks[1])
}

// WritePorts writes both output latches in one transaction. Unchanged values are not written again.
func (m *Expander) WritePorts(ports [stella.MaxPortGroups]byte) error {
	for i := range ports {
		ports[i] &= m.Masks[i]
	}
	if m.optimize && ports == m.current {
		return nil
	}
	if err := m.Bus.I2cWrite(m.Addr, OLAT_PAIRED, ports[0], ports[1]); err != nil {
		m.optimize = false
		return err
	}
	m.current = ports
	m.optimize = true
	return nil
}

// Off switches all driven pins off.
func (m *Expander) Off() error {
	m.optimize = false
	return m.WritePorts([stella.MaxPortGroups]byte{})
}
