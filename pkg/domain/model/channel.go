package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Channel represents a conversation within a team. Members is the set of
// user IDs currently in the channel.
type Channel struct {
	ID        types.ChannelID
	TeamID    types.TeamID
	Name      string
	Topic     string
	Purpose   string
	IsPrivate bool
	IsGroup   bool
	IsIM      bool
	IsMember  bool
	Archived  bool

	Members map[types.UserID]struct{}
}

// ChannelData is a partial channel payload with presence-carrying fields
type ChannelData struct {
	ID        types.ChannelID
	TeamID    types.TeamID
	Name      *string
	Topic     *string
	Purpose   *string
	IsPrivate *bool
	IsGroup   *bool
	IsIM      *bool
	IsMember  *bool
	Archived  *bool
	Members   []types.UserID
}

// Validate checks the caller contract for an upsert payload
func (d *ChannelData) Validate() error {
	if d == nil {
		return goerr.New("channel data is nil")
	}
	if err := d.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid channel data")
	}
	return nil
}

// NewChannel constructs a channel owned by the given team
func NewChannel(data *ChannelData) *Channel {
	ch := &Channel{
		ID:      data.ID,
		TeamID:  data.TeamID,
		Members: make(map[types.UserID]struct{}),
	}
	ch.Patch(data)
	return ch
}

// Patch applies a partial payload with presence-gated assignment. A
// Members slice, when present, replaces the membership set.
func (ch *Channel) Patch(data *ChannelData) {
	if data == nil {
		return
	}
	if data.Name != nil {
		ch.Name = *data.Name
	}
	if data.Topic != nil {
		ch.Topic = *data.Topic
	}
	if data.Purpose != nil {
		ch.Purpose = *data.Purpose
	}
	if data.IsPrivate != nil {
		ch.IsPrivate = *data.IsPrivate
	}
	if data.IsGroup != nil {
		ch.IsGroup = *data.IsGroup
	}
	if data.IsIM != nil {
		ch.IsIM = *data.IsIM
	}
	if data.IsMember != nil {
		ch.IsMember = *data.IsMember
	}
	if data.Archived != nil {
		ch.Archived = *data.Archived
	}
	if data.Members != nil {
		ch.Members = make(map[types.UserID]struct{}, len(data.Members))
		for _, id := range data.Members {
			ch.Members[id] = struct{}{}
		}
	}
}

// AddMember adds a user to the membership set
func (ch *Channel) AddMember(id types.UserID) {
	ch.Members[id] = struct{}{}
}

// RemoveMember removes a user from the membership set
func (ch *Channel) RemoveMember(id types.UserID) {
	delete(ch.Members, id)
}

// HasMember reports whether a user is in the membership set
func (ch *Channel) HasMember(id types.UserID) bool {
	_, ok := ch.Members[id]
	return ok
}

// Clone returns a structural snapshot of the channel including a copy of
// its membership set
func (ch *Channel) Clone() *Channel {
	if ch == nil {
		return nil
	}
	c := *ch
	c.Members = make(map[types.UserID]struct{}, len(ch.Members))
	for id := range ch.Members {
		c.Members[id] = struct{}{}
	}
	return &c
}
