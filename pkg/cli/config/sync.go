package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/gyges/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Sync holds CLI flags for the sync engine itself
type Sync struct {
	seedFile       string
	reconnectDelay time.Duration
}

// Flags returns CLI flags for sync engine configuration
func (x *Sync) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "seed-file",
			Usage:       "TOML file with workspace credentials to install on startup",
			Category:    "Sync",
			Sources:     cli.EnvVars("GYGES_SEED_FILE"),
			Destination: &x.seedFile,
		},
		&cli.DurationFlag{
			Name:        "reconnect-delay",
			Usage:       "Delay before the single reconnect attempt after a dropped stream",
			Category:    "Sync",
			Value:       usecase.DefaultReconnectDelay,
			Sources:     cli.EnvVars("GYGES_RECONNECT_DELAY"),
			Destination: &x.reconnectDelay,
		},
	}
}

// ReconnectDelay returns the configured reconnect delay
func (x *Sync) ReconnectDelay() time.Duration {
	return x.reconnectDelay
}

// SeedFile returns the seed file path, empty when not configured
func (x *Sync) SeedFile() string {
	return x.seedFile
}

// SeedConfig represents the seed file contents
type SeedConfig struct {
	Credentials []SeedCredential `toml:"credential"`
}

// SeedCredential is a single workspace credential record
type SeedCredential struct {
	Token  string `toml:"token"`
	TeamID string `toml:"team_id"`
	UserID string `toml:"user_id"`
}

// Validate checks if the SeedCredential is valid
func (c *SeedCredential) Validate() error {
	if c.Token == "" {
		return goerr.New("credential token is required", goerr.V("team_id", c.TeamID))
	}
	return nil
}

// Validate checks if the SeedConfig is valid
func (s *SeedConfig) Validate() error {
	seen := make(map[string]bool)
	for _, cred := range s.Credentials {
		if err := cred.Validate(); err != nil {
			return goerr.Wrap(err, "invalid credential")
		}
		if cred.TeamID != "" {
			if seen[cred.TeamID] {
				return goerr.New("duplicate team ID in seed file", goerr.V("team_id", cred.TeamID))
			}
			seen[cred.TeamID] = true
		}
	}
	return nil
}

// LoadSeedConfig loads workspace credentials from a TOML file
func LoadSeedConfig(path string) (*SeedConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V("path", path))
	}

	var config SeedConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML seed file", goerr.V("path", path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "seed file validation failed", goerr.V("path", path))
	}

	return &config, nil
}
