package model

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Team represents a Slack workspace and owns its users, channels and bots.
// Exactly one Team exists per team ID; upserts patch it in place.
type Team struct {
	ID             types.TeamID
	FakeID         string
	Name           string
	Domain         string
	Icon           string
	EnterpriseID   string
	EnterpriseName string
	Email          string
	EmailDomain    string
	Partial        bool

	Users    map[types.UserID]*User
	Channels map[types.ChannelID]*Channel
	Bots     map[types.BotID]*Bot
}

// TeamData is a partial team payload. Nil fields are absent and never
// overwrite existing values when patched.
type TeamData struct {
	ID             types.TeamID
	Name           *string
	Domain         *string
	Icon           *string
	EnterpriseID   *string
	EnterpriseName *string
	Email          *string
	EmailDomain    *string
	Partial        *bool
}

// Validate checks the caller contract for an upsert payload
func (d *TeamData) Validate() error {
	if d == nil {
		return goerr.New("team data is nil")
	}
	if err := d.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team data")
	}
	return nil
}

// NewTeam constructs a team from an initial payload. New teams start as
// partial until a full load completes.
func NewTeam(data *TeamData) *Team {
	t := &Team{
		ID:       data.ID,
		FakeID:   uuid.NewString(),
		Partial:  true,
		Users:    make(map[types.UserID]*User),
		Channels: make(map[types.ChannelID]*Channel),
		Bots:     make(map[types.BotID]*Bot),
	}
	t.Patch(data)
	return t
}

// Patch applies a partial payload. Assignment is presence-gated: fields
// absent from the payload are left untouched.
func (t *Team) Patch(data *TeamData) {
	if data == nil {
		return
	}
	if data.Name != nil {
		t.Name = *data.Name
	}
	if data.Domain != nil {
		t.Domain = *data.Domain
	}
	if data.Icon != nil {
		t.Icon = *data.Icon
	}
	if data.EnterpriseID != nil {
		t.EnterpriseID = *data.EnterpriseID
	}
	if data.EnterpriseName != nil {
		t.EnterpriseName = *data.EnterpriseName
	}
	if data.Email != nil {
		t.Email = *data.Email
	}
	if data.EmailDomain != nil {
		t.EmailDomain = *data.EmailDomain
	}
	if data.Partial != nil {
		t.Partial = *data.Partial
	}
}

// Clone returns a structural snapshot of the team. Collection maps are
// copied so later registrations do not show up in the snapshot; the
// contained entities are shared references.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	c.Users = make(map[types.UserID]*User, len(t.Users))
	for id, u := range t.Users {
		c.Users[id] = u
	}
	c.Channels = make(map[types.ChannelID]*Channel, len(t.Channels))
	for id, ch := range t.Channels {
		c.Channels[id] = ch
	}
	c.Bots = make(map[types.BotID]*Bot, len(t.Bots))
	for id, b := range t.Bots {
		c.Bots[id] = b
	}
	return &c
}
