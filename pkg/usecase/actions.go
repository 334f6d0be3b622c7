package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Application-initiated writes call the request API first and, on
// success, run the same patch path as inbound events so the local graph
// matches server-confirmed state.

// CreateChannel creates a conversation and registers it locally
func (uc *UseCases) CreateChannel(ctx context.Context, teamID types.TeamID, name string, private bool) (*model.Channel, error) {
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return nil, goerr.Wrap(ErrUnknownTeam, "cannot create channel", goerr.V("team_id", teamID))
	}

	data, err := api.CreateChannel(ctx, name, private)
	if err != nil {
		return nil, goerr.Wrap(err, "channel creation failed", goerr.V("name", name))
	}
	data.TeamID = teamID

	return uc.UpsertChannel(ctx, data, false)
}

// InviteToChannel invites users and applies the membership patch locally
func (uc *UseCases) InviteToChannel(ctx context.Context, teamID types.TeamID, channelID types.ChannelID, userIDs ...types.UserID) error {
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return goerr.Wrap(ErrUnknownTeam, "cannot invite", goerr.V("team_id", teamID))
	}

	if err := api.InviteToChannel(ctx, channelID, userIDs...); err != nil {
		return goerr.Wrap(err, "invite failed", goerr.V("channel_id", channelID))
	}

	channel := uc.Channel(teamID, channelID)
	if channel == nil {
		return nil
	}
	for _, id := range userIDs {
		if user := uc.User(teamID, id); user != nil {
			uc.applyMembership(teamID, user, channel, true)
		}
	}
	return nil
}

// KickFromChannel removes a user and applies the membership patch locally
func (uc *UseCases) KickFromChannel(ctx context.Context, teamID types.TeamID, channelID types.ChannelID, userID types.UserID) error {
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return goerr.Wrap(ErrUnknownTeam, "cannot kick", goerr.V("team_id", teamID))
	}

	if err := api.KickFromChannel(ctx, channelID, userID); err != nil {
		return goerr.Wrap(err, "kick failed", goerr.V("channel_id", channelID), goerr.V("user_id", userID))
	}

	channel := uc.Channel(teamID, channelID)
	user := uc.User(teamID, userID)
	if channel != nil && user != nil {
		uc.applyMembership(teamID, user, channel, false)
	}
	return nil
}

// LeaveChannel leaves a conversation and patches the membership flag
func (uc *UseCases) LeaveChannel(ctx context.Context, teamID types.TeamID, channelID types.ChannelID) error {
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return goerr.Wrap(ErrUnknownTeam, "cannot leave", goerr.V("team_id", teamID))
	}

	if err := api.LeaveChannel(ctx, channelID); err != nil {
		return goerr.Wrap(err, "leave failed", goerr.V("channel_id", channelID))
	}

	_, err := uc.UpsertChannel(ctx, &model.ChannelData{
		ID:       channelID,
		TeamID:   teamID,
		IsMember: model.Ptr(false),
	}, false)
	return err
}

// ArchiveChannel archives a conversation and patches the archived flag
func (uc *UseCases) ArchiveChannel(ctx context.Context, teamID types.TeamID, channelID types.ChannelID) error {
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return goerr.Wrap(ErrUnknownTeam, "cannot archive", goerr.V("team_id", teamID))
	}

	if err := api.ArchiveChannel(ctx, channelID); err != nil {
		return goerr.Wrap(err, "archive failed", goerr.V("channel_id", channelID))
	}

	_, err := uc.UpsertChannel(ctx, &model.ChannelData{
		ID:       channelID,
		TeamID:   teamID,
		Archived: model.Ptr(true),
	}, false)
	return err
}
