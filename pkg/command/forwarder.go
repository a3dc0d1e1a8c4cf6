package command

import (
	"encoding/json"
	"sync"

	"mkstream/pkg/event"
)

// Dispatcher consumes one serialized event payload at a time. The
// production implementation is Executor; tests substitute fakes.
type Dispatcher interface {
	Dispatch(payload string)
}

// envelope is the wire shape written to the child process's stdin.
type envelope struct {
	Event event.Kind     `json:"event"`
	Data  map[string]any `json:"data"`
}

// Forwarder owns the bounded dispatch queue and its single worker
// goroutine. Send is non-blocking for the caller: the queue is protected
// by a mutex with condition-variable signaling, and overflow evicts the
// oldest entry instead of blocking the producer.
type Forwarder struct {
	cfg        Config
	dispatcher Dispatcher
	allow      map[string]bool

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []string
	running bool
	done    chan struct{}
}

// NewForwarder creates a Forwarder in the Stopped state.
func NewForwarder(cfg Config, dispatcher Dispatcher) *Forwarder {
	f := &Forwarder{
		cfg:        cfg,
		dispatcher: dispatcher,
	}
	f.cond = sync.NewCond(&f.mu)
	if len(cfg.Events) > 0 {
		f.allow = make(map[string]bool, len(cfg.Events))
		for _, e := range cfg.Events {
			f.allow[e] = true
		}
	}
	return f
}

// Start launches the worker goroutine. A no-op if forwarding is disabled
// or the worker is already running.
func (f *Forwarder) Start() {
	if !f.cfg.Enabled {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return
	}
	f.running = true
	f.done = make(chan struct{})
	go f.loop(f.done)
}

// Stop signals the worker to exit and blocks until it has: no dispatch
// outlives the call. Entries still queued at stop time are abandoned;
// forwarding is lossy by contract. Idempotent.
func (f *Forwarder) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	done := f.done
	f.cond.Broadcast()
	f.mu.Unlock()
	<-done
}

// Send serializes the event once and enqueues it. Silently dropped when
// forwarding is disabled, the worker is stopped, or the kind is filtered
// out by the allow-list. At capacity, the oldest entry is evicted first.
func (f *Forwarder) Send(kind event.Kind, data map[string]any) {
	if !f.cfg.Enabled {
		return
	}
	if f.allow != nil && !f.allow[string(kind)] {
		return
	}

	payload, err := json.Marshal(envelope{Event: kind, Data: data})
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return
	}
	max := f.cfg.queueSize()
	if len(f.queue) >= max {
		drop := len(f.queue) - max + 1
		f.queue = append(f.queue[:0], f.queue[drop:]...)
	}
	f.queue = append(f.queue, string(payload))
	f.cond.Signal()
}

// loop is the worker: it sleeps while the queue is empty, wakes on enqueue
// or stop, and hands entries to the dispatcher one at a time, preserving
// FIFO order.
func (f *Forwarder) loop(done chan struct{}) {
	defer close(done)
	for {
		f.mu.Lock()
		for f.running && len(f.queue) == 0 {
			f.cond.Wait()
		}
		if !f.running {
			f.mu.Unlock()
			return
		}
		payload := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()

		f.dispatcher.Dispatch(payload)
	}
}

// Pending returns a copy of the queued payloads in dispatch order (for tests).
func (f *Forwarder) Pending() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queue))
	copy(out, f.queue)
	return out
}
