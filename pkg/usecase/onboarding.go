package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
)

// AddCredential onboards a token. teamID and userID are placeholders and
// may be empty; the handshake supplies the authoritative identities.
func (uc *UseCases) AddCredential(ctx context.Context, token string, teamID types.TeamID, userID types.UserID) error {
	cred := &model.Credential{
		Token:     token,
		TeamID:    teamID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	return uc.Connect(ctx, cred)
}

// RestoreAll re-adds every persisted credential at process start. A
// failure for one team never blocks the others.
func (uc *UseCases) RestoreAll(ctx context.Context) error {
	creds, err := uc.repo.Credential().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list credentials")
	}

	logger := logging.From(ctx)
	for _, cred := range creds {
		if cred.WebhookOnly {
			if err := uc.enableWebhookOnly(ctx, cred); err != nil {
				logger.Error("failed to restore webhook-only credential",
					"team_id", cred.TeamID, "error", err)
			}
			continue
		}

		if err := uc.Connect(ctx, cred); err != nil {
			logger.Error("failed to restore credential",
				"team_id", cred.TeamID, "error", err)
		}
	}

	return nil
}

// CompleteOAuth exchanges an authorization code, validates the installed
// app, onboards the resulting token and, for a brand-new team, joins all
// public channels while startup suppression is in effect.
func (uc *UseCases) CompleteOAuth(ctx context.Context, code string) (*model.Credential, error) {
	if uc.oauth == nil {
		return nil, goerr.Wrap(ErrNoOAuth, "cannot complete OAuth")
	}

	result, err := uc.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(err, "OAuth code exchange failed")
	}

	if uc.appID != "" && result.AppID != uc.appID {
		return nil, goerr.Wrap(ErrAppIDMismatch, "OAuth completion rejected",
			goerr.V("got", result.AppID), goerr.V("want", uc.appID))
	}

	brandNew := uc.Team(result.TeamID) == nil

	if err := uc.AddCredential(ctx, result.Token, result.TeamID, result.UserID); err != nil {
		return nil, goerr.Wrap(err, "failed to onboard OAuth credential")
	}

	if brandNew {
		uc.backfillJoin(ctx, result.TeamID)
	}

	cred, err := uc.repo.Credential().Get(ctx, result.TeamID)
	if err != nil {
		return nil, goerr.Wrap(err, "credential missing after onboarding")
	}
	return cred, nil
}

// backfillJoin joins every public channel of a freshly installed team.
// Joins are best-effort; the resulting events stay suppressed.
func (uc *UseCases) backfillJoin(ctx context.Context, teamID types.TeamID) {
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return
	}

	uc.setStartingUp(teamID, true)
	defer uc.setStartingUp(teamID, false)

	channels, err := api.ListChannels(ctx)
	if err != nil {
		logging.From(ctx).Warn("backfill join skipped, channel list failed",
			"team_id", teamID, "error", err)
		return
	}

	logger := logging.From(ctx)
	for _, ch := range channels {
		if (ch.IsPrivate != nil && *ch.IsPrivate) ||
			(ch.IsIM != nil && *ch.IsIM) ||
			(ch.IsMember != nil && *ch.IsMember) {
			continue
		}
		if err := api.JoinChannel(ctx, ch.ID); err != nil {
			logger.Warn("backfill join failed", "channel_id", ch.ID, "error", err)
		}
	}
}
