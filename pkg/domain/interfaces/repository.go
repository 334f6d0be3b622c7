package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// ErrNotFound is returned when a record does not exist in the repository
var ErrNotFound = goerr.New("not found")

// Repository defines the interface for durable persistence. The engine
// only persists credentials; the entity graph lives in memory.
type Repository interface {
	Credential() CredentialRepository
	Close() error
}

// CredentialRepository stores one credential per team
type CredentialRepository interface {
	// Put saves a credential (upsert keyed by team ID)
	Put(ctx context.Context, cred *model.Credential) error

	// Get retrieves the credential for a team, or ErrNotFound
	Get(ctx context.Context, teamID types.TeamID) (*model.Credential, error)

	// List returns all stored credentials
	List(ctx context.Context) ([]*model.Credential, error)

	// Delete removes the credential for a team, or ErrNotFound
	Delete(ctx context.Context, teamID types.TeamID) error
}
