package event

import "encoding/json"

// envelopeKind is the only recognized top-level streaming message kind.
const envelopeKind = "channel"

// mainChannel is the per-user notification stream.
const mainChannel = "main"

// timelineChannels are the subscription ids treated as note timelines.
var timelineChannels = map[string]bool{
	"social":         true,
	"hybridTimeline": true,
	"local":          true,
	"global":         true,
	"home":           true,
}

// Classify decodes one raw streaming message and normalizes it into exactly
// one canonical event. Decoding failures surface as an error event with
// code "json_parse_error"; once a message decodes, classification cannot
// fail: unmatched shapes fall through to the generic kinds with their raw
// discriminators preserved.
func Classify(raw []byte) Event {
	var msg map[string]any
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Event{Kind: KindError, Data: map[string]any{
			"code":   "json_parse_error",
			"detail": err.Error(),
		}}
	}

	kind := stringOr(msg, "type", "")
	if kind != envelopeKind {
		return Event{Kind: KindUnknown, Data: map[string]any{"rawType": kind}}
	}

	body, _ := msg["body"].(map[string]any)
	channel := stringOr(body, "id", "")
	eventType := stringOr(body, "type", "")

	switch {
	case timelineChannels[channel]:
		return classifyTimeline(channel, eventType, body)
	case channel == mainChannel:
		return classifyMain(eventType, body)
	default:
		return Event{Kind: KindChannelEvent, Data: map[string]any{
			"channel":   channel,
			"eventType": eventType,
		}}
	}
}

// classifyTimeline handles the five timeline channels: a "note" sub-event
// with a nested body becomes a note event, everything else a timeline_event.
func classifyTimeline(channel, eventType string, body map[string]any) Event {
	if eventType == "note" {
		if note, ok := body["body"].(map[string]any); ok {
			return Event{Kind: KindNote, Data: map[string]any{
				"channel": channel,
				"note":    ExtractNote(note),
			}}
		}
	}
	return Event{Kind: KindTimelineEvent, Data: map[string]any{
		"channel":   channel,
		"eventType": eventType,
	}}
}

// classifyMain handles the main channel's sub-event types.
func classifyMain(eventType string, body map[string]any) Event {
	inner, hasBody := body["body"].(map[string]any)

	switch {
	case eventType == "notification" && hasBody:
		data := map[string]any{
			"notificationType": stringOr(inner, "type", ""),
			"id":               stringOr(inner, "id", ""),
		}
		if user, ok := inner["user"].(map[string]any); ok {
			data["user"] = ExtractUser(user)
		}
		if note, ok := inner["note"].(map[string]any); ok {
			data["note"] = ExtractNote(note)
		}
		if reaction, ok := inner["reaction"]; ok && reaction != nil {
			data["reaction"] = reaction
		}
		return Event{Kind: KindNotification, Data: data}

	case eventType == "followed" && hasBody:
		return Event{Kind: KindFollowed, Data: map[string]any{
			"user": ExtractUser(inner),
		}}

	case eventType == "mention" && hasBody:
		return Event{Kind: KindMention, Data: map[string]any{
			"note": ExtractNote(inner),
		}}

	case eventType == "unreadNotification":
		return Event{Kind: KindUnreadNotification, Data: map[string]any{}}

	default:
		return Event{Kind: KindMainEvent, Data: map[string]any{
			"eventType": eventType,
		}}
	}
}
