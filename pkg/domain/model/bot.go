package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Bot is a lightweight record for a non-human actor, distinct from a
// bot-flavored User.
type Bot struct {
	ID      types.BotID
	TeamID  types.TeamID
	Name    string
	Deleted bool
}

// BotData is a partial bot payload
type BotData struct {
	ID      types.BotID
	TeamID  types.TeamID
	Name    *string
	Deleted *bool
}

// Validate checks the caller contract for an upsert payload
func (d *BotData) Validate() error {
	if d == nil {
		return goerr.New("bot data is nil")
	}
	if err := d.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid bot data")
	}
	return nil
}

// NewBot constructs a bot owned by the given team
func NewBot(data *BotData) *Bot {
	b := &Bot{
		ID:     data.ID,
		TeamID: data.TeamID,
	}
	b.Patch(data)
	return b
}

// Patch applies a partial payload with presence-gated assignment
func (b *Bot) Patch(data *BotData) {
	if data == nil {
		return
	}
	if data.Name != nil {
		b.Name = *data.Name
	}
	if data.Deleted != nil {
		b.Deleted = *data.Deleted
	}
}

// Clone returns a snapshot copy of the bot
func (b *Bot) Clone() *Bot {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
