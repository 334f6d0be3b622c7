package memory

import (
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is the in-memory repository backend, intended for development
// and tests.
type Memory struct {
	credentials *credentialRepository
}

var _ interfaces.Repository = &Memory{}

// New creates a new in-memory repository
func New() *Memory {
	return &Memory{
		credentials: newCredentialRepository(),
	}
}

func (m *Memory) Credential() interfaces.CredentialRepository {
	return m.credentials
}

// Close is a no-op for the in-memory backend
func (m *Memory) Close() error {
	return nil
}
