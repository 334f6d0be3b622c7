package model

import (
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Message is a transient value handed to event listeners. It is never
// retained by the store.
type Message struct {
	TeamID    types.TeamID
	ChannelID types.ChannelID
	UserID    types.UserID
	BotID     types.BotID
	Text      string
	Subtype   string
	TS        string
	ThreadTS  string
	EventTS   string
}

// Reaction is a transient value describing an emoji reaction on a message
type Reaction struct {
	TeamID    types.TeamID
	ChannelID types.ChannelID
	UserID    types.UserID
	Emoji     string
	ItemTS    string
	ItemType  string
}
