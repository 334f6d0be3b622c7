package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// User represents an account within a team. FullBot marks synthetic
// bot identities created from bot events rather than real accounts.
type User struct {
	ID       types.UserID
	TeamID   types.TeamID
	Name     string
	RealName string
	Email    string
	ImageURL string
	IsAdmin  bool
	Deleted  bool
	FullBot  bool
	Partial  bool
}

// UserData is a partial user payload with presence-carrying fields
type UserData struct {
	ID       types.UserID
	TeamID   types.TeamID
	Name     *string
	RealName *string
	Email    *string
	ImageURL *string
	IsAdmin  *bool
	Deleted  *bool
	FullBot  *bool
	Partial  *bool
}

// Validate checks the caller contract for an upsert payload
func (d *UserData) Validate() error {
	if d == nil {
		return goerr.New("user data is nil")
	}
	if err := d.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user data")
	}
	return nil
}

// NewUser constructs a user owned by the given team
func NewUser(data *UserData) *User {
	u := &User{
		ID:      data.ID,
		TeamID:  data.TeamID,
		Partial: true,
	}
	u.Patch(data)
	return u
}

// Patch applies a partial payload with presence-gated assignment
func (u *User) Patch(data *UserData) {
	if data == nil {
		return
	}
	if data.Name != nil {
		u.Name = *data.Name
	}
	if data.RealName != nil {
		u.RealName = *data.RealName
	}
	if data.Email != nil {
		u.Email = *data.Email
	}
	if data.ImageURL != nil {
		u.ImageURL = *data.ImageURL
	}
	if data.IsAdmin != nil {
		u.IsAdmin = *data.IsAdmin
	}
	if data.Deleted != nil {
		u.Deleted = *data.Deleted
	}
	if data.FullBot != nil {
		u.FullBot = *data.FullBot
	}
	if data.Partial != nil {
		u.Partial = *data.Partial
	}
}

// Clone returns a snapshot copy of the user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
