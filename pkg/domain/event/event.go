// Package event provides the typed pub/sub bus for domain events emitted
// by the synchronization engine.
package event

import (
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Type names a domain event. The vocabulary is part of the public
// contract with application code.
type Type string

const (
	Connected    Type = "connected"
	Disconnected Type = "disconnected"

	AddTeam       Type = "addTeam"
	ChangeTeam    Type = "changeTeam"
	AddUser       Type = "addUser"
	ChangeUser    Type = "changeUser"
	AddChannel    Type = "addChannel"
	ChangeChannel Type = "changeChannel"

	Message        Type = "message"
	MessageChanged Type = "messageChanged"
	MessageDeleted Type = "messageDeleted"

	ReactionAdded   Type = "reactionAdded"
	ReactionRemoved Type = "reactionRemoved"

	MemberJoinedChannel Type = "memberJoinedChannel"
	MemberLeftChannel   Type = "memberLeftChannel"

	Typing         Type = "typing"
	PresenceChange Type = "presenceChange"
)

// Event is a single domain event. Data holds one of the payload types
// below depending on Type.
type Event struct {
	Type Type
	Team types.TeamID
	Data any
}

// TeamChange is the payload of changeTeam
type TeamChange struct {
	Old *model.Team
	New *model.Team
}

// UserChange is the payload of changeUser
type UserChange struct {
	Old *model.User
	New *model.User
}

// ChannelChange is the payload of changeChannel
type ChannelChange struct {
	Old *model.Channel
	New *model.Channel
}

// MessageChange is the payload of messageChanged
type MessageChange struct {
	Old *model.Message
	New *model.Message
}

// Membership is the payload of memberJoinedChannel / memberLeftChannel
type Membership struct {
	User    *model.User
	Channel *model.Channel
}

// TypingPayload is the payload of typing
type TypingPayload struct {
	User    types.UserID
	Channel types.ChannelID
}

// PresencePayload is the payload of presenceChange
type PresencePayload struct {
	User     types.UserID
	Presence string
}
