package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/antongulenko/stella/joystick"
	"github.com/antongulenko/stella/mcp23017"
	"github.com/antongulenko/stella/sequence"
	"github.com/antongulenko/stella/stella"
	"gopkg.in/yaml.v3"
)

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type HardwareConfig struct {
	UsbDevice string `yaml:"usb_device"`
	I2cFreq   uint   `yaml:"i2c_freq"`
	I2cAddr   uint   `yaml:"i2c_addr"`
	Dummy     bool   `yaml:"dummy"`
	MaxErrors int    `yaml:"max_errors"`
}

type Config struct {
	Ports     []stella.PortGroup `yaml:"ports"`
	FadeStep  uint               `yaml:"fade_step"`
	FadeFunc  string             `yaml:"fade_func"`
	StartMode string             `yaml:"start_mode"`
	StateFile string             `yaml:"state_file"`

	// Interval of the main loop (fading, requests)
	Interval time.Duration `yaml:"interval"`

	// Duration of one PWM tick, a cycle takes 256 ticks
	Tick time.Duration `yaml:"tick"`

	// Number of rounds of the startup sequence, played before the start mode is applied
	StartupRounds int            `yaml:"startup_sequence"`
	Startup       sequence.Chase `yaml:"sequence"`

	Hardware HardwareConfig  `yaml:"hardware"`
	Serial   SerialConfig    `yaml:"serial"`
	Joystick joystick.Dimmer `yaml:"joystick"`
	Console  bool            `yaml:"console"`
}

var DefaultConfig = Config{
	Ports: []stella.PortGroup{
		{Name: "A", Pins: 8},
		{Name: "B", Pins: 8},
	},
	FadeStep:      stella.DefaultFadeStep,
	FadeFunc:      stella.FadeLinear.String(),
	StartMode:     stella.StartStored.String(),
	StateFile:     "stella.state",
	Interval:      5 * time.Millisecond,
	Tick:          40 * time.Microsecond,
	StartupRounds: 1,
	Startup:       sequence.DefaultChase,
	Hardware: HardwareConfig{
		I2cFreq:   400,
		I2cAddr:   uint(mcp23017.ADDRESS),
		MaxErrors: 10,
	},
	Serial: SerialConfig{
		Baud: 115200,
	},
	Joystick: joystick.Dimmer{
		Index:       -1,
		FlashButton: 1,
		NumChannels: 1,
		Axis: joystick.Axis{
			AxisNumber:      1,
			ZeroFrom:        -0.05,
			ZeroTo:          0.05,
			ScaleZeroFromTo: true,
			UseY:            true,
		},
	},
}

func (c *Config) RegisterFlags() {
	flag.UintVar(&c.FadeStep, "fade-step", c.FadeStep, "Number of main loop iterations between two fade steps")
	flag.StringVar(&c.FadeFunc, "fade-func", c.FadeFunc, "Fade function (linear, exponential)")
	flag.StringVar(&c.StartMode, "start", c.StartMode, "Initial channel values (eeprom: stored values, all: full brightness, none: dark)")
	flag.StringVar(&c.StateFile, "state", c.StateFile, "File for storing channel values (empty to disable)")
	flag.IntVar(&c.StartupRounds, "startup-sequence", c.StartupRounds, "Number of startup sequence rounds (can be disabled)")
	c.Startup.RegisterFlags("startup")
	flag.DurationVar(&c.Interval, "interval", c.Interval, "Interval of the main loop")
	flag.DurationVar(&c.Tick, "tick", c.Tick, "Duration of one PWM tick")
	flag.StringVar(&c.Hardware.UsbDevice, "dev", c.Hardware.UsbDevice, "Specify a USB path for FT260")
	flag.UintVar(&c.Hardware.I2cFreq, "freq", c.Hardware.I2cFreq, "The I2C bus frequency (60 - 3400)")
	flag.UintVar(&c.Hardware.I2cAddr, "addr", c.Hardware.I2cAddr, "I2C address of the GPIO expander")
	flag.BoolVar(&c.Hardware.Dummy, "dummy", c.Hardware.Dummy, "Disable USB/I2C peripherals, only log port values")
	flag.IntVar(&c.Hardware.MaxErrors, "max-errors", c.Hardware.MaxErrors, "Consecutive output errors before giving up (0 for never)")
	flag.StringVar(&c.Serial.Device, "serial", c.Serial.Device, "Serial device for receiving control frames (empty to disable)")
	flag.IntVar(&c.Serial.Baud, "baud", c.Serial.Baud, "Baud rate of the serial device")
	flag.BoolVar(&c.Console, "console", c.Console, "Run the interactive console")
	c.Joystick.RegisterFlags()
}

func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("Failed to parse config file %v: %v", path, err)
	}
	return nil
}

// Engine validates the configuration and returns the engine configuration and start mode.
func (c *Config) Engine() (stella.Config, stella.StartMode, error) {
	var res stella.Config
	fadeFunc, err := stella.ParseFadeFunc(c.FadeFunc)
	if err != nil {
		return res, 0, err
	}
	startMode, err := stella.ParseStartMode(c.StartMode)
	if err != nil {
		return res, 0, err
	}
	if c.FadeStep > 255 {
		return res, 0, fmt.Errorf("Fade step %v exceeds 255", c.FadeStep)
	}
	if c.Interval <= 0 || c.Tick <= 0 {
		return res, 0, fmt.Errorf("Interval (%v) and tick (%v) must be positive", c.Interval, c.Tick)
	}
	if c.Hardware.I2cAddr < uint(mcp23017.ADDRESS) || c.Hardware.I2cAddr > uint(mcp23017.MAX_ADDRESS) {
		return res, 0, fmt.Errorf("I2C address %#02x is not a valid MCP23017 address", c.Hardware.I2cAddr)
	}
	res = stella.Config{
		Ports:    c.Ports,
		FadeStep: uint8(c.FadeStep),
		FadeFunc: fadeFunc,
	}
	return res, startMode, nil
}
