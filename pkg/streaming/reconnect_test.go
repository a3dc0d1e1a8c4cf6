package streaming

import (
	"testing"
	"time"
)

func TestReconnectWaitBounds(t *testing.T) {
	t.Parallel()

	c := New("misskey.example", "tok", nil, nil)
	c.SetReconnectInterval(100*time.Millisecond, 20*time.Millisecond)

	for i := 0; i < 200; i++ {
		wait := c.reconnectWait()
		if wait < 80*time.Millisecond || wait > 120*time.Millisecond {
			t.Fatalf("wait %s outside base±jitter", wait)
		}
	}
}

func TestReconnectWaitNoJitter(t *testing.T) {
	t.Parallel()

	c := New("misskey.example", "tok", nil, nil)
	c.SetReconnectInterval(50*time.Millisecond, 0)

	if wait := c.reconnectWait(); wait != 50*time.Millisecond {
		t.Errorf("wait = %s, want exactly the base interval", wait)
	}
}
