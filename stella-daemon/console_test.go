package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/antongulenko/stella/stella"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	values []byte
}

func (m *memStorage) Restore(dest []byte) error {
	copy(dest, m.values)
	return nil
}

func (m *memStorage) Save(src []byte) error {
	m.values = append([]byte(nil), src...)
	return nil
}

func testConsole(t *testing.T) *Console {
	e, err := stella.New(stella.Config{
		Ports:    []stella.PortGroup{{Name: "A", Pins: 4}},
		FadeStep: 0,
	})
	require.NoError(t, err)
	runner := &stella.Runner{Engine: e, Interval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go runner.Run(ctx)
	return &Console{runner: runner}
}

func TestConsoleCommands(t *testing.T) {
	a := assert.New(t)
	c := testConsole(t)
	var out bytes.Buffer
	run := func(line string) {
		a.NoError(c.execute(&out, line), line)
	}

	run("")
	run("set 0 100")
	run("fade 1 50")
	run("flash 2 200")
	run("rel 0 -10")
	run("dmx 0 1 2")
	run("step 7")
	run("func exponential")

	var values, targets []uint8
	c.runner.Do(func(e *stella.Engine) {
		for ch := 0; ch < e.ChannelCount(); ch++ {
			values = append(values, e.Value(ch))
			targets = append(targets, e.FadeTarget(ch))
		}
		a.Equal(uint8(7), e.FadeStep())
		a.Equal(stella.FadeExponential, e.FadeFunc())
	})
	a.Equal([]uint8{1, 2, 200, 0}, values)
	a.Equal([]uint8{1, 2, 0, 0}, targets)

	out.Reset()
	run("show")
	a.Contains(out.String(), " 2 (port A, pin 00000100): 200 ->   0")
	out.Reset()
	run("table")
	a.Contains(out.String(), "Port 0")
	out.Reset()
	run("step")
	a.Equal("Fade step: 7\n", out.String())

	run("all 30")
	c.runner.Do(func(e *stella.Engine) {
		a.Equal(uint8(30), e.FadeTarget(3))
	})
}

func TestConsoleErrors(t *testing.T) {
	a := assert.New(t)
	c := testConsole(t)
	var out bytes.Buffer
	for _, line := range []string{
		"set 0",
		"set 0 256",
		"set x 1",
		"set 4 1",
		"rel 0 200",
		"dmx 0",
		"dmx 0 300",
		"func cubic",
		"all",
		"blink 1 2",
	} {
		a.Error(c.execute(&out, line), line)
	}
	a.Equal(errQuit, c.execute(&out, "quit"))
}

func TestConsoleSaveLoad(t *testing.T) {
	a := assert.New(t)
	c := testConsole(t)
	storage := new(memStorage)
	c.runner.Do(func(e *stella.Engine) {
		e.SetStorage(storage)
	})
	var out bytes.Buffer
	a.NoError(c.execute(&out, "fade 3 90"))
	a.NoError(c.execute(&out, "save"))
	a.Equal([]byte{0, 0, 0, 90}, storage.values)

	storage.values = []byte{5, 6, 7, 8}
	a.NoError(c.execute(&out, "load"))
	c.runner.Do(func(e *stella.Engine) {
		a.Equal(uint8(7), e.Value(2))
	})
}
