package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TimestampFormat is ISO-8601 with millisecond precision and UTC offset.
const TimestampFormat = "2006-01-02T15:04:05.000-07:00"

// Output formats for rendered events.
type Format string

// Format constants. JSONL is the default: one JSON object per line, easy
// for LLM bots and other machine consumers to parse.
const (
	FormatJSONL Format = "jsonl"
	FormatHuman Format = "human"
)

// Display truncation limits, in runes.
const (
	noteDisplayLimit  = 200
	notifDisplayLimit = 80
)

// Styles for the human format. Only applied when color is enabled.
var (
	styleTimestamp = lipgloss.NewStyle().Faint(true)
	styleTag       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleHandle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	styleNotif     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Renderer turns canonical events into single output lines. Rendering never
// fails: encoding problems degrade to a best-effort line rather than an
// error on the stream path.
type Renderer struct {
	Format Format
	Color  bool // colorize human output (TTY only)
}

// Render produces one line (without trailing newline) for the event,
// stamped with the given ISO-8601 timestamp.
func (r *Renderer) Render(ts string, e Event) string {
	if r.Format == FormatHuman {
		return r.renderHuman(ts, e)
	}
	return renderJSONL(ts, e)
}

// jsonLine fixes the field order of the structured format.
type jsonLine struct {
	TS    string         `json:"ts"`
	Event Kind           `json:"event"`
	Data  map[string]any `json:"data"`
}

func renderJSONL(ts string, e Event) string {
	out, err := json.Marshal(jsonLine{TS: ts, Event: e.Kind, Data: e.Data})
	if err != nil {
		// Data only holds values produced by extraction, so this should be
		// unreachable; degrade to a minimal line instead of dropping output.
		return fmt.Sprintf(`{"ts":%q,"event":%q,"data":null}`, ts, e.Kind)
	}
	return string(out)
}

func (r *Renderer) renderHuman(ts string, e Event) string {
	var b strings.Builder
	b.WriteString(r.paint(styleTimestamp, "["+ts+"]"))
	b.WriteString(" ")

	data := e.Data

	switch e.Kind {
	case KindNote:
		note, _ := data["note"].(map[string]any)
		user, _ := note["user"].(map[string]any)
		channel := stringOr(data, "channel", "?")
		text := stringOr(note, "text", "")
		cw := stringOr(note, "cw", "")

		b.WriteString(r.paint(styleTag, "["+channel+"]"))
		b.WriteString(" " + r.paint(styleHandle, UserHandle(user)))
		if renote, ok := note["renote"].(map[string]any); ok && text == "" {
			renoteUser, _ := renote["user"].(map[string]any)
			b.WriteString(" RN " + r.paint(styleHandle, UserHandle(renoteUser)))
			b.WriteString(": " + oneline(truncate(stringOr(renote, "text", ""), noteDisplayLimit)))
		} else {
			if cw != "" {
				b.WriteString(" [CW: " + oneline(cw) + "]")
			}
			b.WriteString(": " + oneline(truncate(text, noteDisplayLimit)))
		}

	case KindNotification:
		b.WriteString(r.paint(styleNotif, "[NOTIF:"+stringOr(data, "notificationType", "")+"]"))
		if user, ok := data["user"].(map[string]any); ok {
			b.WriteString(" from " + r.paint(styleHandle, UserHandle(user)))
		}
		if reaction, ok := data["reaction"].(string); ok {
			b.WriteString(" " + reaction)
		}
		if note, ok := data["note"].(map[string]any); ok {
			if text, ok := note["text"].(string); ok {
				b.WriteString(` on "` + oneline(truncate(text, notifDisplayLimit)) + `"`)
			}
		}

	case KindFollowed:
		user, _ := data["user"].(map[string]any)
		b.WriteString(r.paint(styleNotif, "[FOLLOWED]"))
		b.WriteString(" by " + r.paint(styleHandle, UserHandle(user)))

	case KindMention:
		note, _ := data["note"].(map[string]any)
		user, _ := note["user"].(map[string]any)
		b.WriteString(r.paint(styleNotif, "[MENTION]"))
		b.WriteString(" " + r.paint(styleHandle, UserHandle(user)))
		b.WriteString(": " + oneline(truncate(stringOr(note, "text", ""), noteDisplayLimit)))

	case KindConnected:
		b.WriteString(r.paint(styleTag, "[SYSTEM]"))
		b.WriteString(" Connected to " + stringOr(data, "uri", ""))

	case KindDisconnected:
		b.WriteString(r.paint(styleTag, "[SYSTEM]"))
		b.WriteString(" Disconnected: " + stringOr(data, "reason", ""))

	case KindReconnecting:
		b.WriteString(r.paint(styleTag, "[SYSTEM]"))
		b.WriteString(" Reconnecting...")

	case KindError:
		b.WriteString(r.paint(styleError, "[ERROR]"))
		b.WriteString(" " + stringOr(data, "code", "") + ": " + stringOr(data, "detail", ""))

	default:
		raw, err := json.Marshal(data)
		if err != nil {
			raw = []byte("{}")
		}
		b.WriteString("[" + string(e.Kind) + "] " + string(raw))
	}

	return b.String()
}

func (r *Renderer) paint(style lipgloss.Style, s string) string {
	if !r.Color {
		return s
	}
	return style.Render(s)
}

// truncate limits s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// oneline collapses newlines to spaces for single-line display.
func oneline(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
