package slack

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/slack-go/slack"
)

type oauthClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

var _ interfaces.OAuth = &oauthClient{}

// NewOAuth creates an OAuth code exchanger
func NewOAuth(clientID, clientSecret, redirectURI string) (interfaces.OAuth, error) {
	if clientID == "" || clientSecret == "" {
		return nil, goerr.New("OAuth client ID and secret are required")
	}
	return &oauthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   http.DefaultClient,
	}, nil
}

// Exchange trades an authorization code for a token
func (c *oauthClient) Exchange(ctx context.Context, code string) (*interfaces.OAuthResult, error) {
	if code == "" {
		return nil, goerr.New("authorization code is required")
	}

	resp, err := slack.GetOAuthV2ResponseContext(ctx, c.httpClient, c.clientID, c.clientSecret, code, c.redirectURI)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to exchange OAuth code")
	}
	if resp.AccessToken == "" || resp.Team.ID == "" {
		return nil, goerr.New("OAuth response is missing token or team")
	}

	return &interfaces.OAuthResult{
		Token:  resp.AccessToken,
		AppID:  types.AppID(resp.AppID),
		TeamID: types.TeamID(resp.Team.ID),
		UserID: types.UserID(resp.BotUserID),
	}, nil
}
