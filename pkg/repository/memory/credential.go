package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

type credentialRepository struct {
	mu    sync.RWMutex
	creds map[types.TeamID]*model.Credential
}

var _ interfaces.CredentialRepository = &credentialRepository{}

func newCredentialRepository() *credentialRepository {
	return &credentialRepository{
		creds: make(map[types.TeamID]*model.Credential),
	}
}

func (r *credentialRepository) Put(ctx context.Context, cred *model.Credential) error {
	if err := cred.Validate(); err != nil {
		return goerr.Wrap(err, "invalid credential")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *cred
	r.creds[cred.TeamID] = &copied
	return nil
}

func (r *credentialRepository) Get(ctx context.Context, teamID types.TeamID) (*model.Credential, error) {
	if err := teamID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid team ID")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.creds[teamID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}

	copied := *cred
	return &copied, nil
}

func (r *credentialRepository) List(ctx context.Context) ([]*model.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Credential, 0, len(r.creds))
	for _, cred := range r.creds {
		copied := *cred
		result = append(result, &copied)
	}
	return result, nil
}

func (r *credentialRepository) Delete(ctx context.Context, teamID types.TeamID) error {
	if err := teamID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.creds[teamID]; !ok {
		return interfaces.ErrNotFound
	}

	delete(r.creds, teamID)
	return nil
}
