package stella

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type request struct {
	op   func(e *Engine)
	done bool
	wait *sync.Cond
}

func (r *request) Wait() {
	r.wait.L.Lock()
	defer r.wait.L.Unlock()
	for !r.done {
		r.wait.Wait()
	}
}

func (r *request) notifyDone() {
	r.wait.L.Lock()
	defer r.wait.L.Unlock()
	r.done = true
	r.wait.Broadcast()
}

// Runner is the main loop of an engine. It calls Process every Interval and
// executes requests from other goroutines in between, so that the channel state is
// only ever touched by the loop goroutine.
type Runner struct {
	Engine    *Engine
	Interval  time.Duration
	QueueSize int

	startOnce sync.Once
	queue     chan *request
}

func (r *Runner) init() {
	r.startOnce.Do(func() {
		r.queue = make(chan *request, r.QueueSize)
	})
}

// Run processes requests and calls Engine.Process until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.init()
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	log.Debugf("Stella main loop running every %v", r.Interval)
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case req := <-r.queue:
			req.op(r.Engine)
			req.notifyDone()
		case <-ticker.C:
			r.Engine.Process()
		}
	}
}

// drain releases requests queued before the loop stopped, without executing them.
func (r *Runner) drain() {
	for {
		select {
		case req := <-r.queue:
			req.notifyDone()
		default:
			return
		}
	}
}

// Do executes op inside the main loop and waits for it to finish.
// Do must not be called after Run has returned.
func (r *Runner) Do(op func(e *Engine)) {
	r.init()
	req := &request{
		op:   op,
		wait: &sync.Cond{L: new(sync.Mutex)},
	}
	r.queue <- req
	req.Wait()
}

func (r *Runner) Dmx(frame []byte) {
	r.Do(func(e *Engine) {
		e.Dmx(frame)
	})
}

func (r *Runner) SetValue(fn SetFunction, channel int, value uint8) {
	r.Do(func(e *Engine) {
		e.SetValue(fn, channel, value)
	})
}

func (r *Runner) Output() (res OutputChannels) {
	r.Do(func(e *Engine) {
		res = e.Output()
	})
	return
}
