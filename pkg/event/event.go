// Package event normalizes Misskey streaming messages into a small, stable
// taxonomy of canonical events. The classifier turns arbitrarily-shaped
// inbound records into {kind, data} pairs; the Handler is the single choke
// point that renders every event to stdout and forwards it to the external
// command pipeline.
package event

// Kind identifies a canonical event category.
type Kind string

// Canonical event kinds. The set is closed: every inbound message maps to
// exactly one of these, with unrecognized shapes downgraded to the generic
// unknown/channel_event/timeline_event/main_event kinds rather than dropped.
const (
	KindNote               Kind = "note"
	KindNotification       Kind = "notification"
	KindFollowed           Kind = "followed"
	KindMention            Kind = "mention"
	KindUnreadNotification Kind = "unreadNotification"
	KindConnected          Kind = "connected"
	KindDisconnected       Kind = "disconnected"
	KindReconnecting       Kind = "reconnecting"
	KindError              Kind = "error"
	KindChannelEvent       Kind = "channel_event"
	KindTimelineEvent      Kind = "timeline_event"
	KindMainEvent          Kind = "main_event"
	KindUnknown            Kind = "unknown"
)

// Event is a normalized streaming event. Data holds only fields the
// extractor explicitly copied out of the inbound record, never the raw
// record itself.
type Event struct {
	Kind Kind
	Data map[string]any
}
