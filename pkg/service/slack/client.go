// Package slack implements the engine's transport contracts on top of
// the Slack Web and RTM APIs.
package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/slack-go/slack"
)

// conversationsPager is the subset of the Slack API used by the drained
// channel listing; split out so pagination can be tested with a fake.
type conversationsPager interface {
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
}

// client implements interfaces.API for one token
type client struct {
	api   *slack.Client
	pager conversationsPager
}

var _ interfaces.API = &client{}

// New creates an API client for a token
func New(token string) interfaces.API {
	api := slack.New(token)
	return &client{api: api, pager: api}
}

// Factory returns an APIFactory backed by the real Slack Web API
func Factory() interfaces.APIFactory {
	return func(token string) interfaces.API {
		return New(token)
	}
}

// TeamInfo fetches team metadata
func (c *client) TeamInfo(ctx context.Context) (*model.TeamData, error) {
	info, err := c.api.GetTeamInfoContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get team info")
	}
	if info.ID == "" {
		return nil, goerr.New("team info response has no team ID")
	}

	data := &model.TeamData{
		ID:          types.TeamID(info.ID),
		Name:        model.Ptr(info.Name),
		Domain:      model.Ptr(info.Domain),
		EmailDomain: model.Ptr(info.EmailDomain),
	}
	if icon, ok := info.Icon["image_68"].(string); ok {
		data.Icon = model.Ptr(icon)
	}
	return data, nil
}

// ListChannels returns every conversation the token can see, draining
// the pagination cursor fully before returning.
func (c *client) ListChannels(ctx context.Context) ([]*model.ChannelData, error) {
	var channels []*model.ChannelData
	var cursor string

	for {
		params := &slack.GetConversationsParameters{
			Types:           []string{"public_channel", "private_channel"},
			ExcludeArchived: true,
			Limit:           100,
			Cursor:          cursor,
		}

		convs, nextCursor, err := c.pager.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get conversations")
		}

		for _, conv := range convs {
			if conv.ID == "" {
				return nil, goerr.New("conversation entry has no ID")
			}
			channels = append(channels, convertChannel(&conv))
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return channels, nil
}

// ListUsers returns every user, draining pagination fully
func (c *client) ListUsers(ctx context.Context) ([]*model.UserData, error) {
	var users []*model.UserData

	p := c.api.GetUsersPaginated(slack.GetUsersOptionLimit(200))
	var err error
	for err == nil {
		p, err = p.Next(ctx)
		if err == nil {
			for i := range p.Users {
				users = append(users, convertUser(&p.Users[i]))
			}
		}
	}
	if err := p.Failure(err); err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	return users, nil
}

// CreateChannel creates a conversation
func (c *client) CreateChannel(ctx context.Context, name string, private bool) (*model.ChannelData, error) {
	conv, err := c.api.CreateConversationContext(ctx, slack.CreateConversationParams{
		ChannelName: name,
		IsPrivate:   private,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create conversation", goerr.V("name", name))
	}
	return convertChannel(conv), nil
}

// JoinChannel joins a conversation
func (c *client) JoinChannel(ctx context.Context, channelID types.ChannelID) error {
	if _, _, _, err := c.api.JoinConversationContext(ctx, channelID.String()); err != nil {
		return goerr.Wrap(err, "failed to join conversation", goerr.V("channel_id", channelID))
	}
	return nil
}

// InviteToChannel invites users to a conversation
func (c *client) InviteToChannel(ctx context.Context, channelID types.ChannelID, userIDs ...types.UserID) error {
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}
	if _, err := c.api.InviteUsersToConversationContext(ctx, channelID.String(), ids...); err != nil {
		return goerr.Wrap(err, "failed to invite users", goerr.V("channel_id", channelID))
	}
	return nil
}

// KickFromChannel removes a user from a conversation
func (c *client) KickFromChannel(ctx context.Context, channelID types.ChannelID, userID types.UserID) error {
	if err := c.api.KickUserFromConversationContext(ctx, channelID.String(), userID.String()); err != nil {
		return goerr.Wrap(err, "failed to kick user", goerr.V("channel_id", channelID), goerr.V("user_id", userID))
	}
	return nil
}

// LeaveChannel leaves a conversation
func (c *client) LeaveChannel(ctx context.Context, channelID types.ChannelID) error {
	if _, err := c.api.LeaveConversationContext(ctx, channelID.String()); err != nil {
		return goerr.Wrap(err, "failed to leave conversation", goerr.V("channel_id", channelID))
	}
	return nil
}

// ArchiveChannel archives a conversation
func (c *client) ArchiveChannel(ctx context.Context, channelID types.ChannelID) error {
	if err := c.api.ArchiveConversationContext(ctx, channelID.String()); err != nil {
		return goerr.Wrap(err, "failed to archive conversation", goerr.V("channel_id", channelID))
	}
	return nil
}

func convertChannel(conv *slack.Channel) *model.ChannelData {
	data := &model.ChannelData{
		ID:        types.ChannelID(conv.ID),
		Name:      model.Ptr(conv.Name),
		Topic:     model.Ptr(conv.Topic.Value),
		Purpose:   model.Ptr(conv.Purpose.Value),
		IsPrivate: model.Ptr(conv.IsPrivate),
		IsGroup:   model.Ptr(conv.IsGroup),
		IsIM:      model.Ptr(conv.IsIM),
		IsMember:  model.Ptr(conv.IsMember),
		Archived:  model.Ptr(conv.IsArchived),
	}
	for _, m := range conv.Members {
		data.Members = append(data.Members, types.UserID(m))
	}
	return data
}

func convertUser(u *slack.User) *model.UserData {
	return &model.UserData{
		ID:       types.UserID(u.ID),
		TeamID:   types.TeamID(u.TeamID),
		Name:     model.Ptr(u.Name),
		RealName: model.Ptr(u.RealName),
		Email:    model.Ptr(u.Profile.Email),
		ImageURL: model.Ptr(u.Profile.Image48),
		IsAdmin:  model.Ptr(u.IsAdmin),
		Deleted:  model.Ptr(u.Deleted),
		FullBot:  model.Ptr(u.IsBot),
		Partial:  model.Ptr(false),
	}
}
