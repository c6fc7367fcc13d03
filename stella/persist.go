package stella

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Storage is a non-volatile store for the fade targets of all channels.
type Storage interface {
	Restore(dest []byte) error
	Save(src []byte) error
}

func (e *Engine) SetStorage(storage Storage) {
	e.storage = storage
}

// LoadFading restores the fade targets. Channels fade from their current brightness to the stored values.
func (e *Engine) LoadFading() {
	e.restore()
}

// Load restores the fade targets and sets the brightness values without fading.
func (e *Engine) Load() {
	if e.restore() {
		copy(e.state.Brightness[:e.state.count], e.state.Fade[:e.state.count])
		e.markUpdate()
	}
}

func (e *Engine) restore() bool {
	if e.storage == nil {
		return false
	}
	var values [MaxChannels]byte
	if err := e.storage.Restore(values[:e.state.count]); err != nil {
		log.Warnf("Failed to restore stella channel values: %v", err)
		return false
	}
	copy(e.state.Fade[:e.state.count], values[:e.state.count])
	return true
}

// Save stores the fade targets. Failures are logged and otherwise ignored.
func (e *Engine) Save() {
	if e.storage == nil {
		return
	}
	if err := e.storage.Save(e.state.Fade[:e.state.count]); err != nil {
		log.Warnf("Failed to save stella channel values: %v", err)
	}
}

// FadeAll sets the fade target of all channels, without touching the brightness.
func (e *Engine) FadeAll(value uint8) {
	for i := 0; i < e.state.count; i++ {
		e.state.Fade[i] = value
	}
}

// StartMode selects the channel values an engine starts with.
type StartMode int

const (
	// Fade in to the stored values
	StartStored = StartMode(iota)
	// Fade in all channels to full brightness
	StartAll
	// Start dark
	StartNone
)

var startModeNames = map[StartMode]string{
	StartStored: "eeprom",
	StartAll:    "all",
	StartNone:   "none",
}

func (m StartMode) String() string {
	if name, ok := startModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("StartMode(%d)", int(m))
}

func ParseStartMode(name string) (StartMode, error) {
	for mode, modeName := range startModeNames {
		if modeName == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("Unknown start mode %q (valid: eeprom, all, none)", name)
}

// Start prepares the fade targets according to mode. Brightness values are not
// touched, the channels fade in through Process.
func (e *Engine) Start(mode StartMode) {
	log.Printf("Starting stella with %v port group(s), %v channels (start mode %v)", e.numPorts, e.state.count, mode)
	switch mode {
	case StartStored:
		e.LoadFading()
	case StartAll:
		e.FadeAll(255)
	}
}
