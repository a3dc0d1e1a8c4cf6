// Package streaming maintains the WebSocket connection to a Misskey
// instance's /streaming endpoint: it subscribes to the configured channels,
// feeds every inbound message to the event sink, and reconnects with
// jittered backoff when the connection drops. Connection lifecycle is
// reported to the sink as canonical events, so the output stream shows
// connects, disconnects, and reconnect attempts inline.
package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/url"
	"time"
)

// reconnectBaseInterval is the base retry interval for reconnection.
const reconnectBaseInterval = 2 * time.Second

// reconnectJitter is the maximum jitter added to or subtracted from the
// reconnect interval.
const reconnectJitter = 500 * time.Millisecond

// EventSink receives raw stream messages and connection lifecycle notices.
// The production implementation is event.Handler.
type EventSink interface {
	Handle(raw []byte)
	EmitConnected(uri string)
	EmitDisconnected(reason string)
	EmitReconnecting()
	EmitError(code, detail string)
}

// Conn is the minimal connection surface the client needs; the production
// implementation wraps coder/websocket (see dial.go).
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// DialFunc establishes a connection to the streaming endpoint URL.
type DialFunc func(ctx context.Context, wsURL string) (Conn, error)

// Client reads the Misskey streaming connection and pushes every message
// through the sink. It never blocks on downstream consumers: the sink's
// forwarding path is non-blocking by contract.
type Client struct {
	uri      string // instance host, e.g. "misskey.example"
	token    string
	channels []string
	sink     EventSink
	dial     DialFunc

	reconnectBase   time.Duration
	reconnectJitter time.Duration
}

// New creates a Client for the given instance host and token, subscribing
// to the given channels.
func New(uri, token string, channels []string, sink EventSink) *Client {
	return &Client{
		uri:             uri,
		token:           token,
		channels:        channels,
		sink:            sink,
		dial:            dialWebSocket,
		reconnectBase:   reconnectBaseInterval,
		reconnectJitter: reconnectJitter,
	}
}

// SetDialFunc overrides the dialer (for tests).
func (c *Client) SetDialFunc(dial DialFunc) {
	c.dial = dial
}

// SetReconnectInterval overrides the backoff timing (for tests).
func (c *Client) SetReconnectInterval(base, jitter time.Duration) {
	c.reconnectBase = base
	c.reconnectJitter = jitter
}

// StreamURL is the wss endpoint including the token.
func (c *Client) StreamURL() string {
	return "wss://" + c.uri + "/streaming?i=" + url.QueryEscape(c.token)
}

// Run connects and reads until ctx is cancelled, reconnecting on any
// connection failure. It returns nil on cancellation; the connection loop
// itself has no fatal errors.
func (c *Client) Run(ctx context.Context) error {
	for {
		connected, err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if connected {
			c.sink.EmitDisconnected(err.Error())
		} else {
			c.sink.EmitError("connect_error", err.Error())
		}
		c.sink.EmitReconnecting()

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.reconnectWait()):
		}
	}
}

// runOnce performs a single connect/subscribe/read cycle. connected
// reports whether the dial succeeded, so the caller can distinguish a
// dropped connection from a failed attempt.
func (c *Client) runOnce(ctx context.Context) (connected bool, err error) {
	conn, err := c.dial(ctx, c.StreamURL())
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.uri, err)
	}
	defer func() { _ = conn.Close() }()

	c.sink.EmitConnected(c.uri)

	for _, channel := range c.channels {
		frame, err := ConnectFrame(channel)
		if err != nil {
			return true, fmt.Errorf("build subscribe frame for %s: %w", channel, err)
		}
		if err := conn.Write(ctx, frame); err != nil {
			return true, fmt.Errorf("subscribe %s: %w", channel, err)
		}
	}

	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		c.sink.Handle(data)
	}
}

// ConnectFrame builds the channel subscription message. The subscription id
// is the channel name itself, so inbound messages carry the channel name as
// their discriminator.
func ConnectFrame(channel string) ([]byte, error) {
	frame := map[string]any{
		"type": "connect",
		"body": map[string]any{
			"channel": channel,
			"id":      channel,
		},
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("marshal connect frame: %w", err)
	}
	return data, nil
}

// reconnectWait returns the base interval with ± jitter applied.
func (c *Client) reconnectWait() time.Duration {
	if c.reconnectJitter <= 0 {
		return c.reconnectBase
	}
	jitter := time.Duration(rand.Int64N(int64(2*c.reconnectJitter))) - c.reconnectJitter
	return c.reconnectBase + jitter
}
