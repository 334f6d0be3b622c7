package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
)

// Firestore is the durable repository backend
type Firestore struct {
	client      *firestore.Client
	credentials *credentialRepository
}

var _ interfaces.Repository = &Firestore{}

// Option configures the Firestore repository
type Option func(*Firestore)

// WithCollectionPrefix prefixes collection names, so multiple deployments
// can share one database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.credentials.collectionPrefix = prefix
	}
}

// New creates a Firestore repository. databaseID may be empty for the
// default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client:      client,
		credentials: newCredentialRepository(client),
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Credential() interfaces.CredentialRepository {
	return f.credentials
}

// Close releases the underlying client
func (f *Firestore) Close() error {
	return f.client.Close()
}
