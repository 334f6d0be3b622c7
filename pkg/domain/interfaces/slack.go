package interfaces

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// ErrNotAllowedTokenType is returned by Stream.Start when the credential
// is not eligible for realtime sessions. The engine falls back to
// webhook-only mode for such credentials.
var ErrNotAllowedTokenType = goerr.New("token type not allowed for realtime session")

// API is the request/response client for one credential. Implementations
// handle auth headers, pagination tokens and rate limiting; list calls
// return fully drained results.
type API interface {
	// TeamInfo fetches team metadata
	TeamInfo(ctx context.Context) (*model.TeamData, error)

	// ListChannels returns every conversation, draining pagination
	ListChannels(ctx context.Context) ([]*model.ChannelData, error)

	// ListUsers returns every user, draining pagination
	ListUsers(ctx context.Context) ([]*model.UserData, error)

	// CreateChannel creates a conversation and returns its data
	CreateChannel(ctx context.Context, name string, private bool) (*model.ChannelData, error)

	// JoinChannel joins a conversation
	JoinChannel(ctx context.Context, channelID types.ChannelID) error

	// InviteToChannel invites users to a conversation
	InviteToChannel(ctx context.Context, channelID types.ChannelID, userIDs ...types.UserID) error

	// KickFromChannel removes a user from a conversation
	KickFromChannel(ctx context.Context, channelID types.ChannelID, userID types.UserID) error

	// LeaveChannel leaves a conversation
	LeaveChannel(ctx context.Context, channelID types.ChannelID) error

	// ArchiveChannel archives a conversation
	ArchiveChannel(ctx context.Context, channelID types.ChannelID) error
}

// APIFactory builds an API client for a token
type APIFactory func(token string) API

// OAuthResult is the outcome of an authorization code exchange
type OAuthResult struct {
	Token  string
	AppID  types.AppID
	TeamID types.TeamID
	UserID types.UserID
}

// OAuth exchanges authorization codes for tokens
type OAuth interface {
	Exchange(ctx context.Context, code string) (*OAuthResult, error)
}

// Stream is the realtime transport. Start blocks until the session is
// authenticated and returns it, or fails.
type Stream interface {
	Start(ctx context.Context, token string) (Session, error)
}

// Session is one established realtime connection. Team and Self carry
// the authoritative identities learned during the handshake; they may
// differ from caller-supplied placeholders.
type Session interface {
	Team() *model.TeamData
	Self() *model.UserData

	// Events delivers lifecycle signals and raw events. The channel is
	// closed when the session ends.
	Events() <-chan model.SessionEvent

	Disconnect() error
}
