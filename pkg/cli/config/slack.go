package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	svcslack "github.com/secmon-lab/gyges/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	appID         string
	clientID      string
	clientSecret  string
	signingSecret string
	oauthScopes   string
	redirectURI   string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-app-id",
			Usage:       "Slack App ID (webhook events for other apps are ignored)",
			Category:    "Slack",
			Destination: &x.appID,
			Sources:     cli.EnvVars("GYGES_SLACK_APP_ID"),
		},
		&cli.StringFlag{
			Name:        "slack-client-id",
			Usage:       "Slack OAuth client ID",
			Category:    "Slack",
			Destination: &x.clientID,
			Sources:     cli.EnvVars("GYGES_SLACK_CLIENT_ID"),
		},
		&cli.StringFlag{
			Name:        "slack-client-secret",
			Usage:       "Slack OAuth client secret",
			Category:    "Slack",
			Destination: &x.clientSecret,
			Sources:     cli.EnvVars("GYGES_SLACK_CLIENT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("GYGES_SLACK_SIGNING_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-oauth-scopes",
			Usage:       "Comma-separated OAuth scopes requested on install",
			Category:    "Slack",
			Destination: &x.oauthScopes,
			Sources:     cli.EnvVars("GYGES_SLACK_OAUTH_SCOPES"),
		},
		&cli.StringFlag{
			Name:        "slack-redirect-uri",
			Usage:       "OAuth redirect URI registered with the Slack app",
			Category:    "Slack",
			Destination: &x.redirectURI,
			Sources:     cli.EnvVars("GYGES_SLACK_REDIRECT_URI"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("app-id", x.appID),
		slog.Int("client-id.len", len(x.clientID)),
		slog.Int("client-secret.len", len(x.clientSecret)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
	)
}

// AppID returns the configured Slack App ID
func (x *Slack) AppID() string {
	return x.appID
}

// ClientID returns the Slack OAuth client ID
func (x *Slack) ClientID() string {
	return x.clientID
}

// OAuthScopes returns the requested install scopes
func (x *Slack) OAuthScopes() string {
	return x.oauthScopes
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// IsOAuthConfigured checks if the OAuth install flow can be served
func (x *Slack) IsOAuthConfigured() bool {
	return x.clientID != "" && x.clientSecret != ""
}

// IsWebhookConfigured checks if Slack webhook verification is configured
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// ConfigureOAuth creates the OAuth exchange client from the flags
func (x *Slack) ConfigureOAuth() (interfaces.OAuth, error) {
	if !x.IsOAuthConfigured() {
		return nil, goerr.New("Slack OAuth configuration is required: set --slack-client-id and --slack-client-secret")
	}

	return svcslack.NewOAuth(x.clientID, x.clientSecret, x.redirectURI)
}
