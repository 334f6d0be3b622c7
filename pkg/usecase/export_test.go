package usecase

import (
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
)

// Repo exposes the repository for test seeding
func (uc *UseCases) Repo() interfaces.Repository {
	return uc.repo
}
