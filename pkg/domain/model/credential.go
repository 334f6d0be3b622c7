package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Credential is the durable record of an installed token. It is the only
// state persisted across restarts; the entity graph itself is rebuilt from
// the remote service.
type Credential struct {
	Token       string       `firestore:"token" masq:"secret"`
	TeamID      types.TeamID `firestore:"team_id"`
	UserID      types.UserID `firestore:"user_id"`
	WebhookOnly bool         `firestore:"webhook_only"`
	CreatedAt   time.Time    `firestore:"created_at"`
}

// Validate checks if the credential is storable
func (c *Credential) Validate() error {
	if c == nil {
		return goerr.New("credential is nil")
	}
	if c.Token == "" {
		return goerr.New("credential token is required")
	}
	if err := c.TeamID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid credential")
	}
	return nil
}
