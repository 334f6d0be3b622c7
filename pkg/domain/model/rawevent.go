package model

import (
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// EventSource identifies which transport delivered a raw event
type EventSource string

const (
	// SourceStream marks events delivered over the realtime connection
	SourceStream EventSource = "stream"
	// SourceWebhook marks events delivered over the events webhook
	SourceWebhook EventSource = "webhook"
)

// RawEvent is the transport-neutral envelope for an inbound event. Both
// the realtime stream and the webhook endpoint produce this shape, so the
// normalizer does not care which transport an event came from (except for
// the app ID gate on webhook events).
type RawEvent struct {
	Type    string
	Subtype string
	Source  EventSource
	AppID   types.AppID
	TeamID  types.TeamID

	Channel types.ChannelID
	User    types.UserID
	BotID   types.BotID
	Text    string

	TS       string
	ThreadTS string
	EventTS  string

	// Reaction fields
	Emoji       string
	ItemUser    types.UserID
	ItemChannel types.ChannelID
	ItemTS      string
	ItemType    string

	// Membership fields
	Inviter types.UserID

	// team_rename carries the new name directly
	Name string

	// Embedded payloads for message_changed / message_deleted
	Message         *RawMessage
	PreviousMessage *RawMessage

	// Entity payloads for change events
	UserData    *UserData
	BotData     *BotData
	ChannelData *ChannelData
}

// RawMessage is the embedded message payload carried by edited and
// deleted message events
type RawMessage struct {
	User     types.UserID
	BotID    types.BotID
	Text     string
	Subtype  string
	TS       string
	ThreadTS string
}

// SessionEventType classifies lifecycle signals from a realtime session
type SessionEventType string

const (
	// SessionReady fires once the session is fully established
	SessionReady SessionEventType = "ready"
	// SessionGoodbye means the server asked the client to reconnect
	SessionGoodbye SessionEventType = "goodbye"
	// SessionDisconnected means the connection dropped
	SessionDisconnected SessionEventType = "disconnected"
	// SessionRaw carries a raw domain-shaped event
	SessionRaw SessionEventType = "raw"
)

// SessionEvent is a single signal emitted by a realtime session
type SessionEvent struct {
	Type SessionEventType
	Raw  *RawEvent
	Err  error
}
