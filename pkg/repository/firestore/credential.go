package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const credentialsCollection = "credentials"

type credentialRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.CredentialRepository = &credentialRepository{}

func newCredentialRepository(client *firestore.Client) *credentialRepository {
	return &credentialRepository{client: client}
}

func (r *credentialRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + credentialsCollection)
}

func (r *credentialRepository) Put(ctx context.Context, cred *model.Credential) error {
	if err := cred.Validate(); err != nil {
		return goerr.Wrap(err, "invalid credential")
	}

	docRef := r.collection().Doc(cred.TeamID.String())
	if _, err := docRef.Set(ctx, cred); err != nil {
		return goerr.Wrap(err, "failed to put credential to firestore", goerr.V("team_id", cred.TeamID))
	}

	return nil
}

func (r *credentialRepository) Get(ctx context.Context, teamID types.TeamID) (*model.Credential, error) {
	if err := teamID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid team ID")
	}

	doc, err := r.collection().Doc(teamID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, goerr.Wrap(err, "failed to get credential from firestore", goerr.V("team_id", teamID))
	}

	var cred model.Credential
	if err := doc.DataTo(&cred); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal credential")
	}

	return &cred, nil
}

func (r *credentialRepository) List(ctx context.Context) ([]*model.Credential, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var creds []*model.Credential
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate credentials")
		}

		var cred model.Credential
		if err := doc.DataTo(&cred); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal credential", goerr.V("doc", doc.Ref.ID))
		}
		creds = append(creds, &cred)
	}

	return creds, nil
}

func (r *credentialRepository) Delete(ctx context.Context, teamID types.TeamID) error {
	if err := teamID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team ID")
	}

	docRef := r.collection().Doc(teamID.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return interfaces.ErrNotFound
		}
		return goerr.Wrap(err, "failed to get credential from firestore", goerr.V("team_id", teamID))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete credential from firestore", goerr.V("team_id", teamID))
	}

	return nil
}
