package usecase

import (
	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrUnknownTeam is returned when an operation targets a team the
	// engine has no API access to
	ErrUnknownTeam = goerr.New("unknown team")

	// ErrAppIDMismatch is returned when an OAuth exchange resolves to a
	// different app than the configured one
	ErrAppIDMismatch = goerr.New("app ID mismatch")

	// ErrEngineClosed is returned after a global disconnect
	ErrEngineClosed = goerr.New("engine is disconnected")

	// ErrNoOAuth is returned when OAuth completion is requested without
	// an exchanger configured
	ErrNoOAuth = goerr.New("OAuth is not configured")
)
