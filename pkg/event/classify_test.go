package event_test

import (
	"reflect"
	"testing"

	"mkstream/pkg/event"
)

func TestClassifyNoteEndToEnd(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"channel","body":{"id":"social","type":"note","body":{"id":"abc","text":"hello","user":{"username":"alice"},"visibility":"public","createdAt":"2024-01-01T00:00:00Z"}}}`)

	got := event.Classify(raw)

	want := event.Event{
		Kind: event.KindNote,
		Data: map[string]any{
			"channel": "social",
			"note": map[string]any{
				"id":         "abc",
				"text":       "hello",
				"cw":         nil,
				"visibility": "public",
				"createdAt":  "2024-01-01T00:00:00Z",
				"user": map[string]any{
					"username": "alice",
					"name":     nil,
					"host":     nil,
				},
			},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify mismatch:\ngot  %#v\nwant %#v", got, want)
	}
}

func TestClassifyDeterminism(t *testing.T) {
	t.Parallel()

	// Nested renote two levels deep; repeated classification must be
	// byte-for-byte identical.
	raw := []byte(`{"type":"channel","body":{"id":"home","type":"note","body":{"id":"n2","user":{"username":"a"},"renote":{"id":"n1","user":{"username":"b"},"renote":{"id":"n0","text":"root","user":{"username":"c","host":"remote.example"}}}}}}`)

	first := event.Classify(raw)
	second := event.Classify(raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("classification not deterministic:\nfirst  %#v\nsecond %#v", first, second)
	}

	note := first.Data["note"].(map[string]any)
	renote := note["renote"].(map[string]any)
	inner, ok := renote["renote"].(map[string]any)
	if !ok || inner["text"] != "root" {
		t.Errorf("second-level renote not extracted: %#v", renote)
	}
}

func TestClassifyUnknownEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		rawType string
	}{
		{"unrecognized type", `{"type":"noteUpdated","body":{}}`, "noteUpdated"},
		{"missing type", `{"body":{}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := event.Classify([]byte(tt.raw))
			if got.Kind != event.KindUnknown {
				t.Fatalf("kind = %s, want unknown", got.Kind)
			}
			if got.Data["rawType"] != tt.rawType {
				t.Errorf("rawType = %v, want %q", got.Data["rawType"], tt.rawType)
			}
		})
	}
}

func TestClassifyChannelEvent(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"channel","body":{"id":"antenna-1","type":"note","body":{}}}`)
	got := event.Classify(raw)

	want := event.Event{
		Kind: event.KindChannelEvent,
		Data: map[string]any{"channel": "antenna-1", "eventType": "note"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestClassifyTimelineEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			"non-note sub-event",
			`{"type":"channel","body":{"id":"local","type":"typing"}}`,
			map[string]any{"channel": "local", "eventType": "typing"},
		},
		{
			"note sub-event without nested body",
			`{"type":"channel","body":{"id":"global","type":"note"}}`,
			map[string]any{"channel": "global", "eventType": "note"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := event.Classify([]byte(tt.raw))
			if got.Kind != event.KindTimelineEvent {
				t.Fatalf("kind = %s, want timeline_event", got.Kind)
			}
			if !reflect.DeepEqual(got.Data, tt.want) {
				t.Errorf("data = %#v, want %#v", got.Data, tt.want)
			}
		})
	}
}

func TestClassifyMainNotification(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"channel","body":{"id":"main","type":"notification","body":{"type":"reaction","id":"notif-1","user":{"username":"bob"},"note":{"id":"n1","text":"hi","user":{"username":"alice"}},"reaction":"👍"}}}`)
	got := event.Classify(raw)

	if got.Kind != event.KindNotification {
		t.Fatalf("kind = %s, want notification", got.Kind)
	}
	if got.Data["notificationType"] != "reaction" || got.Data["id"] != "notif-1" {
		t.Errorf("discriminators wrong: %#v", got.Data)
	}
	if got.Data["reaction"] != "👍" {
		t.Errorf("reaction = %v", got.Data["reaction"])
	}
	user, ok := got.Data["user"].(map[string]any)
	if !ok || user["username"] != "bob" {
		t.Errorf("user not extracted: %#v", got.Data["user"])
	}
	note, ok := got.Data["note"].(map[string]any)
	if !ok || note["text"] != "hi" {
		t.Errorf("note not extracted: %#v", got.Data["note"])
	}
}

func TestClassifyMainNotificationOmitsAbsentFields(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"channel","body":{"id":"main","type":"notification","body":{"type":"app","id":"notif-2","user":null}}}`)
	got := event.Classify(raw)

	if got.Kind != event.KindNotification {
		t.Fatalf("kind = %s, want notification", got.Kind)
	}
	for _, key := range []string{"user", "note", "reaction"} {
		if _, present := got.Data[key]; present {
			t.Errorf("%s should be omitted when absent or null: %#v", key, got.Data)
		}
	}
}

func TestClassifyMainFollowed(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"channel","body":{"id":"main","type":"followed","body":{"username":"carol","host":"remote.example"}}}`)
	got := event.Classify(raw)

	if got.Kind != event.KindFollowed {
		t.Fatalf("kind = %s, want followed", got.Kind)
	}
	user, ok := got.Data["user"].(map[string]any)
	if !ok || user["username"] != "carol" || user["host"] != "remote.example" {
		t.Errorf("follower not extracted: %#v", got.Data)
	}
}

func TestClassifyMainMention(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"channel","body":{"id":"main","type":"mention","body":{"id":"n9","text":"hey @me","user":{"username":"dan"}}}}`)
	got := event.Classify(raw)

	if got.Kind != event.KindMention {
		t.Fatalf("kind = %s, want mention", got.Kind)
	}
	note, ok := got.Data["note"].(map[string]any)
	if !ok || note["text"] != "hey @me" {
		t.Errorf("mention note not extracted: %#v", got.Data)
	}
}

func TestClassifyMainUnreadNotification(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"channel","body":{"id":"main","type":"unreadNotification"}}`)
	got := event.Classify(raw)

	if got.Kind != event.KindUnreadNotification {
		t.Fatalf("kind = %s, want unreadNotification", got.Kind)
	}
	if len(got.Data) != 0 {
		t.Errorf("data should be empty, got %#v", got.Data)
	}
}

func TestClassifyMainEventFallback(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"channel","body":{"id":"main","type":"readAllNotifications"}}`)
	got := event.Classify(raw)

	want := event.Event{
		Kind: event.KindMainEvent,
		Data: map[string]any{"eventType": "readAllNotifications"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestClassifyParseErrorIsolation(t *testing.T) {
	t.Parallel()

	bad := event.Classify([]byte(`{not json`))
	if bad.Kind != event.KindError {
		t.Fatalf("kind = %s, want error", bad.Kind)
	}
	if bad.Data["code"] != "json_parse_error" {
		t.Errorf("code = %v, want json_parse_error", bad.Data["code"])
	}
	if detail, _ := bad.Data["detail"].(string); detail == "" {
		t.Errorf("detail should carry the decoder diagnostic")
	}

	// A decode failure must not affect the next valid message.
	good := event.Classify([]byte(`{"type":"channel","body":{"id":"main","type":"unreadNotification"}}`))
	if good.Kind != event.KindUnreadNotification {
		t.Errorf("classification after parse error broken: %s", good.Kind)
	}
}
