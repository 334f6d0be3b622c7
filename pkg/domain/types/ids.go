package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// TeamID identifies a Slack workspace (team). It is opaque to this system.
type TeamID string

// Validate checks if the TeamID is valid
func (t TeamID) Validate() error {
	if t == "" {
		return goerr.New("team ID cannot be empty")
	}
	return nil
}

// String returns the string representation of TeamID
func (t TeamID) String() string {
	return string(t)
}

// UserID identifies a user within a team
type UserID string

// Validate checks if the UserID is valid
func (u UserID) Validate() error {
	if u == "" {
		return goerr.New("user ID cannot be empty")
	}
	return nil
}

// String returns the string representation of UserID
func (u UserID) String() string {
	return string(u)
}

// ChannelID identifies a channel within a team
type ChannelID string

// Validate checks if the ChannelID is valid
func (c ChannelID) Validate() error {
	if c == "" {
		return goerr.New("channel ID cannot be empty")
	}
	return nil
}

// String returns the string representation of ChannelID
func (c ChannelID) String() string {
	return string(c)
}

// BotID identifies a non-human actor within a team
type BotID string

// Validate checks if the BotID is valid
func (b BotID) Validate() error {
	if b == "" {
		return goerr.New("bot ID cannot be empty")
	}
	return nil
}

// String returns the string representation of BotID
func (b BotID) String() string {
	return string(b)
}

// AppID identifies a Slack application installation
type AppID string

// String returns the string representation of AppID
func (a AppID) String() string {
	return string(a)
}
