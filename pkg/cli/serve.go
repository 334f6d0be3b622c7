package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/gyges/pkg/cli/config"
	httpctrl "github.com/secmon-lab/gyges/pkg/controller/http"
	"github.com/secmon-lab/gyges/pkg/domain/event"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/service/slack"
	"github.com/secmon-lab/gyges/pkg/usecase"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var slackCfg config.Slack
	var syncCfg config.Sync

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("GYGES_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, syncCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the sync engine and HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			bus := event.NewBus()
			defer func() {
				if err := bus.Close(); err != nil {
					logger.Error("failed to close event bus", "error", err.Error())
				}
			}()

			ucOpts := []usecase.Option{
				usecase.WithStream(slack.NewStream()),
				usecase.WithAPIFactory(slack.Factory()),
				usecase.WithReconnectDelay(syncCfg.ReconnectDelay()),
			}

			if slackCfg.AppID() != "" {
				ucOpts = append(ucOpts, usecase.WithAppID(types.AppID(slackCfg.AppID())))
			}

			if slackCfg.IsOAuthConfigured() {
				oauth, err := slackCfg.ConfigureOAuth()
				if err != nil {
					return goerr.Wrap(err, "failed to configure slack oauth")
				}
				ucOpts = append(ucOpts, usecase.WithOAuth(oauth))
				logger.Info("Slack OAuth install flow enabled")
			}

			uc := usecase.New(repo, bus, ucOpts...)

			// Reconnect workspaces stored from previous runs
			if err := uc.RestoreAll(ctx); err != nil {
				return goerr.Wrap(err, "failed to restore stored workspaces")
			}

			// Install seed credentials, tolerating per-record failures
			if path := syncCfg.SeedFile(); path != "" {
				seed, err := config.LoadSeedConfig(path)
				if err != nil {
					return goerr.Wrap(err, "failed to load seed file")
				}
				for _, cred := range seed.Credentials {
					err := uc.AddCredential(ctx, cred.Token,
						types.TeamID(cred.TeamID), types.UserID(cred.UserID))
					if err != nil {
						logger.Error("failed to install seed credential",
							"team_id", cred.TeamID, "error", err.Error())
					}
				}
			}

			// Create HTTP server
			httpOpts := []httpctrl.Options{}
			if slackCfg.IsWebhookConfigured() {
				httpOpts = append(httpOpts, httpctrl.WithSigningSecret(slackCfg.SigningSecret()))
				logger.Info("Slack webhook verification enabled")
			}
			if slackCfg.IsOAuthConfigured() {
				httpOpts = append(httpOpts, httpctrl.WithOAuth(slackCfg.ClientID(), slackCfg.OAuthScopes()))
			}

			ctrl := httpctrl.New(uc, httpOpts...)
			server := &http.Server{
				Addr:              addr,
				Handler:           ctrl.Router(),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				// Drop all workspace streams before closing the HTTP surface
				if err := uc.Disconnect(ctx); err != nil {
					logger.Error("failed to disconnect workspaces", "error", err.Error())
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
