package stella

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHandoff(t *testing.T) {
	a := assert.New(t)
	e := newTestEngine(t, 1, FadeLinear)
	a.Equal(NewValues, e.Sync(), "initial table waits for the consumer")

	first := e.AdoptTable()
	a.Equal(NothingNew, e.Sync())
	a.Same(first, e.AdoptTable(), "no flip without new values")

	e.SetImmediate(0, 255)
	a.Equal(UpdateValues, e.Sync())
	a.Same(first, e.AdoptTable(), "no flip while a rebuild is owed")
	a.NotSame(first, e.calcTable(), "rebuild must not write the active table")

	e.Process()
	a.Equal(NewValues, e.Sync())
	a.Equal(byte(0), first.FullOn(0), "active table untouched by the rebuild")

	second := e.AdoptTable()
	a.NotSame(first, second)
	a.Equal(byte(1), second.FullOn(0))
	a.Equal(NothingNew, e.Sync())
	a.Same(first, e.calcTable())
}

func TestUpdateOverridesPendingTable(t *testing.T) {
	a := assert.New(t)
	e := newTestEngine(t, 1, FadeLinear)
	active := e.AdoptTable()

	e.SetImmediate(0, 255)
	e.Process()
	a.Equal(NewValues, e.Sync())

	// New values before the consumer adopted the pending table
	e.SetImmediate(1, 255)
	a.Equal(UpdateValues, e.Sync())
	e.Process()

	adopted := e.AdoptTable()
	a.NotSame(active, adopted)
	a.Equal(byte(0x03), adopted.FullOn(0))
}

func TestSyncStateString(t *testing.T) {
	a := assert.New(t)
	a.Equal("nothing new", NothingNew.String())
	a.Equal("update values", UpdateValues.String())
	a.Equal("new values", NewValues.String())
}

// The consumer goroutine must only ever observe complete tables.
func TestConcurrentConsumer(t *testing.T) {
	e, err := New(Config{Ports: []PortGroup{{Pins: 8}, {Pins: 8}}, FadeStep: 1})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	var failure string
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			tab := e.AdoptTable()
			// All channels always share one brightness, so every complete table has the same shape.
			for p := 0; p < tab.NumPorts(); p++ {
				full := tab.FullOn(p)
				n := tab.ChainLen(p)
				if !(full == 0xFF && n == 0) && !(full == 0 && n <= 1) {
					failure = "inconsistent table observed"
				}
				tab.Chain(p, func(ev Event) {
					if ev.Mask != 0xFF {
						failure = "partial event observed"
					}
				})
			}
		}
	}()

	deadline := time.Now().Add(200 * time.Millisecond)
	for v := 0; time.Now().Before(deadline); v++ {
		frame := make([]byte, 17)
		for i := 1; i < len(frame); i++ {
			frame[i] = byte(v)
		}
		e.Dmx(frame)
		e.Process()
	}
	cancel()
	wg.Wait()
	assert.Empty(t, failure)
}

func TestRunner(t *testing.T) {
	a := assert.New(t)
	e := newTestEngine(t, 1, FadeLinear)
	r := &Runner{Engine: e, Interval: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	r.SetValue(SetFade, 0, 20)
	r.Dmx([]byte{byte(SetImmediately), 0, 7})
	a.Eventually(func() bool {
		return r.Output().PwmChannels[0] == 0
	}, time.Second, time.Millisecond)

	r.SetValue(SetFade, 0, 20)
	a.Eventually(func() bool {
		return r.Output().PwmChannels[0] == 20
	}, time.Second, time.Millisecond)
	a.Equal(uint8(7), r.Output().PwmChannels[1])

	cancel()
	<-done
}
