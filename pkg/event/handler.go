package event

import (
	"fmt"
	"io"
	"time"
)

// Forwarder receives canonical events for dispatch to the external command.
// Implementations must never block the caller.
type Forwarder interface {
	Send(kind Kind, data map[string]any)
}

// Recorder persists canonical events (the SQLite archive). Implementations
// must swallow their own failures; archiving is best-effort.
type Recorder interface {
	Record(ts string, kind Kind, data map[string]any)
}

// Handler is the event sink: every canonical event, whether classified
// from the stream or injected by the connection layer, passes through
// Emit, which renders it to out and then forwards it.
type Handler struct {
	out       io.Writer
	renderer  Renderer
	forwarder Forwarder
	recorder  Recorder
	now       func() time.Time
}

// NewHandler creates a Handler writing rendered events to out. forwarder
// and recorder may be nil, disabling the respective side effect.
func NewHandler(out io.Writer, renderer Renderer, forwarder Forwarder, recorder Recorder) *Handler {
	return &Handler{
		out:       out,
		renderer:  renderer,
		forwarder: forwarder,
		recorder:  recorder,
		now:       time.Now,
	}
}

// SetClock overrides the timestamp source (for testing).
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// Handle classifies one raw streaming message and emits the result.
func (h *Handler) Handle(raw []byte) {
	e := Classify(raw)
	h.Emit(e.Kind, e.Data)
}

// Emit renders the event to output, records it, and forwards it, in that
// order. It never returns an error: output problems must not stop the
// stream-reading path.
func (h *Handler) Emit(kind Kind, data map[string]any) {
	ts := h.now().Format(TimestampFormat)
	fmt.Fprintln(h.out, h.renderer.Render(ts, Event{Kind: kind, Data: data}))
	if h.recorder != nil {
		h.recorder.Record(ts, kind, data)
	}
	if h.forwarder != nil {
		h.forwarder.Send(kind, data)
	}
}

// Connection lifecycle events, injected by the streaming layer rather than
// produced by classification.

// EmitConnected reports an established streaming connection.
func (h *Handler) EmitConnected(uri string) {
	h.Emit(KindConnected, map[string]any{"uri": uri})
}

// EmitDisconnected reports a lost streaming connection.
func (h *Handler) EmitDisconnected(reason string) {
	h.Emit(KindDisconnected, map[string]any{"reason": reason})
}

// EmitReconnecting reports a reconnection attempt.
func (h *Handler) EmitReconnecting() {
	h.Emit(KindReconnecting, map[string]any{})
}

// EmitError reports a non-fatal error as a canonical event.
func (h *Handler) EmitError(code, detail string) {
	h.Emit(KindError, map[string]any{"code": code, "detail": detail})
}
