package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/antongulenko/golib"
	"github.com/antongulenko/hid"
	"github.com/antongulenko/stella/ft260"
	"github.com/antongulenko/stella/mcp23017"
	"github.com/antongulenko/stella/serialframe"
	"github.com/antongulenko/stella/softpwm"
	"github.com/antongulenko/stella/stella"
	"github.com/antongulenko/stella/storage"
	log "github.com/sirupsen/logrus"
)

func main() {
	d := daemon{
		conf:                  DefaultConfig,
		requestQueue:          20,
		joystickRetryDuration: 2 * time.Second,
	}
	d.conf.RegisterFlags()
	flag.StringVar(&d.configFile, "config", d.configFile, "YAML config file. Command line flags override its values.")
	flag.DurationVar(&d.joystickRetryDuration, "js-retry", d.joystickRetryDuration, "Time to retry joystick initialization")
	golib.RegisterFlags(golib.FlagsAll)
	flag.Parse()
	if d.configFile != "" {
		golib.Checkerr(d.conf.Load(d.configFile))
		golib.Checkerr(flag.CommandLine.Parse(os.Args[1:]))
	}
	golib.ConfigureLogging()

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		log.Println("Received signal", <-c)
		cancel()
	}()

	golib.Checkerr(d.setup())
	d.run(ctx, cancel)
	d.cleanup()
}

type daemon struct {
	conf                  Config
	configFile            string
	requestQueue          int
	joystickRetryDuration time.Duration

	startMode stella.StartMode
	engine    *stella.Engine
	runner    *stella.Runner
	driver    softpwm.Driver
	expander  mcp23017.Expander
	usb       *ft260.Ft260
}

func (d *daemon) setup() error {
	engineConf, startMode, err := d.conf.Engine()
	if err != nil {
		return err
	}
	d.startMode = startMode
	d.engine, err = stella.New(engineConf)
	if err != nil {
		return err
	}
	if d.conf.StateFile != "" {
		d.engine.SetStorage(storage.NewFile(d.conf.StateFile))
	}
	d.runner = &stella.Runner{
		Engine:    d.engine,
		Interval:  d.conf.Interval,
		QueueSize: d.requestQueue,
	}

	bus, err := d.setupBus()
	if err != nil {
		return err
	}
	d.expander = mcp23017.Expander{
		Bus:  bus,
		Addr: byte(d.conf.Hardware.I2cAddr),
	}
	for i := range d.engine.Ports() {
		d.expander.Masks[i] = d.engine.PortMask(i)
	}
	if err := d.expander.Init(); err != nil {
		return err
	}
	d.driver = softpwm.Driver{
		Engine:    d.engine,
		Output:    &d.expander,
		Tick:      d.conf.Tick,
		MaxErrors: d.conf.Hardware.MaxErrors,
	}
	log.Printf("Successfully initialized stella with %v channels, PWM frequency %.2f Hz", d.engine.ChannelCount(), d.driver.Frequency())
	return nil
}

func (d *daemon) setupBus() (ft260.I2cBus, error) {
	if d.conf.Hardware.Dummy {
		log.Println("Dummy mode: skipping initialization of USB/I2C peripherals")
		return ft260.DummyBus{}, nil
	}
	// Prepare Usb HID library, open FT260 device
	if err := hid.Init(); err != nil {
		return nil, err
	}
	usb, err := ft260.OpenPath(d.conf.Hardware.UsbDevice)
	if err != nil {
		return nil, err
	}
	d.usb = usb
	return usb, usb.Setup(uint16(d.conf.Hardware.I2cFreq))
}

func (d *daemon) run(ctx context.Context, cancel context.CancelFunc) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.runner.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := d.driver.Run(ctx); err != nil {
			log.Errorf("Stopping after PWM output failure: %v", err)
			cancel()
		}
	}()

	go d.start(ctx)
	if d.conf.Serial.Device != "" {
		port, err := serialframe.Open(serialframe.Config{
			Device: d.conf.Serial.Device,
			Baud:   d.conf.Serial.Baud,
		})
		if err != nil {
			log.Errorln(err)
		} else {
			go d.forwardFrames(ctx, port)
		}
	}
	if d.conf.Joystick.Enabled() {
		go d.waitAndStartJoystick(ctx)
	}
	if d.conf.Console {
		console, err := NewConsole(d.runner)
		if err != nil {
			log.Errorln(err)
		} else {
			log.SetOutput(console.Stdout())
			go console.Run(ctx, cancel)
		}
	}

	<-ctx.Done()
	wg.Wait()
}

// start plays the startup sequence and applies the start mode afterwards.
func (d *daemon) start(ctx context.Context) {
	if d.conf.StartupRounds > 0 {
		log.Println("Running startup sequence...")
		err := d.conf.Startup.Run(ctx, d.conf.StartupRounds, d.engine.ChannelCount(), func(values []uint8) error {
			d.runner.Dmx(startupFrame(values))
			return nil
		})
		if err != nil {
			log.Errorf("Startup sequence failed: %v", err)
		}
		if ctx.Err() != nil {
			return
		}
		d.runner.Dmx(startupFrame(make([]uint8, d.engine.ChannelCount())))
	}
	d.runner.Do(func(e *stella.Engine) {
		e.Start(d.startMode)
	})
}

func startupFrame(values []uint8) []byte {
	return append([]byte{byte(stella.SetImmediately)}, values...)
}

func (d *daemon) forwardFrames(ctx context.Context, port io.ReadCloser) {
	go func() {
		<-ctx.Done()
		golib.Printerr(port.Close())
	}()
	if err := serialframe.Forward(port, d.runner.Dmx); err != nil && ctx.Err() == nil {
		log.Errorf("Stopped reading control frames from %v: %v", d.conf.Serial.Device, err)
	}
}

func (d *daemon) waitAndStartJoystick(ctx context.Context) {
	for {
		err := d.conf.Joystick.Start(d.runner)
		if err == nil {
			return
		}
		log.Errorf("Failed to setup joystick: %v. Retrying in %v...", err, d.joystickRetryDuration)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.joystickRetryDuration):
		}
	}
}

// cleanup must be called after the main loop and the PWM driver have stopped.
func (d *daemon) cleanup() {
	d.engine.Save()
	golib.Printerr(d.expander.Off())
	if d.usb != nil {
		golib.Printerr(hid.Shutdown())
		golib.Printerr(d.usb.Close())
	}
}
