package streaming

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
)

// dialWebSocket is the production DialFunc.
func dialWebSocket(ctx context.Context, wsURL string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, wsURL, nil) //nolint:bodyclose // response body is managed by the websocket conn
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	// Streaming messages are small JSON objects; raise the limit a bit for
	// note payloads with many attachments.
	c.SetReadLimit(1 << 20)
	return &wsConn{conn: c}, nil
}

// wsConn adapts *websocket.Conn to the Conn interface.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	return w.conn.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}
