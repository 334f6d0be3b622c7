package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/event"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Connect establishes a realtime session for a credential and brings the
// team's slice of the graph up to date. The team and self-user identities
// learned during the handshake are authoritative and may differ from the
// caller-supplied placeholders on the credential.
func (uc *UseCases) Connect(ctx context.Context, cred *model.Credential) error {
	if cred == nil || cred.Token == "" {
		return goerr.New("credential token is required")
	}
	if uc.stream == nil {
		return goerr.New("realtime transport is not configured")
	}

	uc.mu.RLock()
	closed := uc.closed
	uc.mu.RUnlock()
	if closed {
		return goerr.Wrap(ErrEngineClosed, "connect rejected")
	}

	sess, err := uc.stream.Start(ctx, cred.Token)
	if errors.Is(err, interfaces.ErrNotAllowedTokenType) {
		return uc.enableWebhookOnly(ctx, cred)
	}
	if err != nil {
		return goerr.Wrap(err, "failed to establish realtime session")
	}

	team := sess.Team()
	if team == nil || team.ID == "" {
		_ = sess.Disconnect()
		return goerr.New("handshake returned no team identity")
	}
	teamID := team.ID
	self := sess.Self()

	existing := uc.Team(teamID)
	needLoad := existing == nil || existing.Partial

	uc.setStartingUp(teamID, true)

	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		uc.setStartingUp(teamID, false)
		_ = sess.Disconnect()
		return goerr.Wrap(ErrEngineClosed, "connect rejected")
	}
	if old := uc.sessions[teamID]; old != nil && old != sess {
		go func() { _ = old.Disconnect() }()
	}
	uc.sessions[teamID] = sess
	if uc.apiFactory != nil {
		uc.apis[teamID] = uc.apiFactory(cred.Token)
	}
	if t := uc.reconnects[teamID]; t != nil {
		t.Stop()
		delete(uc.reconnects, teamID)
	}
	uc.mu.Unlock()

	if _, err := uc.UpsertTeam(ctx, team); err != nil {
		uc.teardown(teamID, sess)
		return goerr.Wrap(err, "failed to register team", goerr.V("team_id", teamID))
	}
	if self != nil {
		self.TeamID = teamID
		if _, err := uc.UpsertUser(ctx, self, false); err != nil {
			uc.teardown(teamID, sess)
			return goerr.Wrap(err, "failed to register self user", goerr.V("team_id", teamID))
		}
	}

	if needLoad {
		if err := uc.loadTeam(ctx, teamID); err != nil {
			uc.teardown(teamID, sess)
			return goerr.Wrap(err, "team load failed", goerr.V("team_id", teamID))
		}
	}

	cred.TeamID = teamID
	if self != nil {
		cred.UserID = self.ID
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}
	if err := uc.repo.Credential().Put(ctx, cred); err != nil {
		uc.teardown(teamID, sess)
		return goerr.Wrap(err, "failed to persist credential", goerr.V("team_id", teamID))
	}

	uc.setStartingUp(teamID, false)

	// the watcher outlives the caller's request scope; only values
	// (logger etc.) carry over
	go uc.watchSession(context.WithoutCancel(ctx), teamID, sess)

	uc.bus.PublishSync(event.Event{Type: event.Connected, Team: teamID})
	return nil
}

// enableWebhookOnly is the fallback for credentials that cannot hold a
// realtime session: the credential is persisted and, when the team is
// already known, its API client registered so webhook events resolve.
func (uc *UseCases) enableWebhookOnly(ctx context.Context, cred *model.Credential) error {
	cred.WebhookOnly = true
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}

	// the token cannot hold a session but can still answer team.info
	if cred.TeamID == "" && uc.apiFactory != nil {
		info, err := uc.apiFactory(cred.Token).TeamInfo(ctx)
		if err != nil {
			logging.From(ctx).Warn("webhook-only team lookup failed", "error", err)
		} else if info != nil {
			cred.TeamID = info.ID
		}
	}
	if err := cred.TeamID.Validate(); err != nil {
		return goerr.Wrap(err, "webhook-only credential needs a team ID")
	}

	uc.mu.Lock()
	if uc.apiFactory != nil {
		uc.apis[cred.TeamID] = uc.apiFactory(cred.Token)
	}
	uc.mu.Unlock()

	uc.setStartingUp(cred.TeamID, true)
	_, err := uc.UpsertTeam(ctx, &model.TeamData{ID: cred.TeamID})
	uc.setStartingUp(cred.TeamID, false)
	if err != nil {
		return goerr.Wrap(err, "failed to register webhook-only team")
	}

	if err := uc.repo.Credential().Put(ctx, cred); err != nil {
		return goerr.Wrap(err, "failed to persist webhook-only credential")
	}

	logging.From(ctx).Info("credential is not eligible for realtime sessions, webhook-only mode",
		"team_id", cred.TeamID)
	return nil
}

// loadTeam drains the team's channel and user lists and clears the
// partial flag. Any malformed page fails the whole load.
func (uc *UseCases) loadTeam(ctx context.Context, teamID types.TeamID) error {
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return goerr.Wrap(ErrUnknownTeam, "no API access for team", goerr.V("team_id", teamID))
	}

	channels, err := api.ListChannels(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list channels", goerr.V("team_id", teamID))
	}
	for _, ch := range channels {
		ch.TeamID = teamID
		if _, err := uc.UpsertChannel(ctx, ch, false); err != nil {
			return goerr.Wrap(err, "failed to load channel", goerr.V("channel_id", ch.ID))
		}
	}

	users, err := api.ListUsers(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list users", goerr.V("team_id", teamID))
	}
	for _, u := range users {
		if u.TeamID == "" {
			u.TeamID = teamID
		}
		if _, err := uc.UpsertUser(ctx, u, false); err != nil {
			return goerr.Wrap(err, "failed to load user", goerr.V("user_id", u.ID))
		}
	}

	if _, err := uc.UpsertTeam(ctx, &model.TeamData{ID: teamID, Partial: model.Ptr(false)}); err != nil {
		return goerr.Wrap(err, "failed to clear partial flag")
	}
	return nil
}

// watchSession pumps session events until the connection ends, then
// schedules the reconnect attempt.
func (uc *UseCases) watchSession(ctx context.Context, teamID types.TeamID, sess interfaces.Session) {
	logger := logging.From(ctx)

	for ev := range sess.Events() {
		switch ev.Type {
		case model.SessionRaw:
			if ev.Raw == nil {
				continue
			}
			if ev.Raw.TeamID == "" {
				ev.Raw.TeamID = teamID
			}
			if err := uc.HandleRawEvent(ctx, ev.Raw); err != nil {
				logger.Error("failed to handle raw event",
					"team_id", teamID, "type", ev.Raw.Type, "error", err)
			}

		case model.SessionGoodbye, model.SessionDisconnected:
			uc.handleDrop(teamID, sess)
			return
		}
	}

	// channel closed without an explicit signal: same as a drop
	uc.handleDrop(teamID, sess)
}

// handleDrop tears the session out of the registry and schedules a single
// reconnect attempt after the fixed delay. A new drop replaces any prior
// pending attempt for the team instead of stacking timers.
func (uc *UseCases) handleDrop(teamID types.TeamID, sess interfaces.Session) {
	uc.mu.Lock()
	if uc.closed || uc.sessions[teamID] != sess {
		uc.mu.Unlock()
		return
	}
	delete(uc.sessions, teamID)

	if t := uc.reconnects[teamID]; t != nil {
		t.Stop()
	}
	uc.reconnects[teamID] = time.AfterFunc(uc.reconnectDelay, func() {
		uc.reconnect(teamID)
	})
	uc.mu.Unlock()

	logging.Default().Warn("realtime session dropped, reconnect scheduled",
		"team_id", teamID, "delay", uc.reconnectDelay)
}

// reconnect performs the single delayed restart attempt. A failed attempt
// surfaces a disconnected event and is not retried.
func (uc *UseCases) reconnect(teamID types.TeamID) {
	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		return
	}
	delete(uc.reconnects, teamID)
	uc.mu.Unlock()

	ctx := context.Background()

	cred, err := uc.repo.Credential().Get(ctx, teamID)
	if err != nil {
		logging.Default().Error("reconnect aborted, credential unavailable",
			"team_id", teamID, "error", err)
		uc.bus.PublishSync(event.Event{Type: event.Disconnected, Team: teamID})
		return
	}

	if err := uc.Connect(ctx, cred); err != nil {
		logging.Default().Error("reconnect attempt failed", "team_id", teamID, "error", err)
		uc.bus.PublishSync(event.Event{Type: event.Disconnected, Team: teamID})
	}
}

// teardown removes a session registered during a failed connect
func (uc *UseCases) teardown(teamID types.TeamID, sess interfaces.Session) {
	uc.mu.Lock()
	if uc.sessions[teamID] == sess {
		delete(uc.sessions, teamID)
	}
	uc.mu.Unlock()
	uc.setStartingUp(teamID, false)
	_ = sess.Disconnect()
}

// Disconnect tears down every active session and stops all pending
// reconnect timers. No timer may resurrect a session afterwards.
func (uc *UseCases) Disconnect(ctx context.Context) error {
	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		return nil
	}
	uc.closed = true

	for id, t := range uc.reconnects {
		t.Stop()
		delete(uc.reconnects, id)
	}

	sessions := make([]interfaces.Session, 0, len(uc.sessions))
	for _, sess := range uc.sessions {
		sessions = append(sessions, sess)
	}
	uc.sessions = make(map[types.TeamID]interfaces.Session)
	uc.mu.Unlock()

	var eg errgroup.Group
	for _, sess := range sessions {
		eg.Go(sess.Disconnect)
	}
	err := eg.Wait()

	uc.bus.PublishSync(event.Event{Type: event.Disconnected})

	if err != nil {
		return goerr.Wrap(err, "session teardown failed")
	}
	return nil
}

// RemoveTeam removes every trace of a team: session, pending reconnect,
// API client, entity graph and stored credential. Other teams are
// untouched.
func (uc *UseCases) RemoveTeam(ctx context.Context, teamID types.TeamID) error {
	uc.mu.Lock()
	sess := uc.sessions[teamID]
	delete(uc.sessions, teamID)
	if t := uc.reconnects[teamID]; t != nil {
		t.Stop()
		delete(uc.reconnects, teamID)
	}
	delete(uc.apis, teamID)
	delete(uc.startingUp, teamID)
	delete(uc.teams, teamID)
	delete(uc.teamLocks, teamID)
	uc.mu.Unlock()

	if sess != nil {
		_ = sess.Disconnect()
	}

	if err := uc.repo.Credential().Delete(ctx, teamID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return goerr.Wrap(err, "failed to delete credential", goerr.V("team_id", teamID))
	}
	return nil
}
