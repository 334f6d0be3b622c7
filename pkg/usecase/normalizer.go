package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/event"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
)

// message subtypes that never produce a domain event
var suppressedSubtypes = map[string]struct{}{
	"channel_join":    {},
	"channel_name":    {},
	"message_replied": {},
}

// HandleRawEvent classifies a raw inbound event and applies it to the
// entity graph. It is transport-agnostic except for the app ID gate on
// webhook-sourced events.
func (uc *UseCases) HandleRawEvent(ctx context.Context, raw *model.RawEvent) error {
	if raw == nil {
		return nil
	}

	// multi-tenant webhook endpoints may receive events for unrelated
	// installations
	if raw.Source == model.SourceWebhook && uc.appID != "" && raw.AppID != uc.appID {
		logging.From(ctx).Debug("ignoring foreign-app event",
			"app_id", raw.AppID, "type", raw.Type)
		return nil
	}

	switch raw.Type {
	case "message":
		return uc.handleMessage(ctx, raw)

	case "reaction_added":
		return uc.handleReaction(ctx, raw, event.ReactionAdded)

	case "reaction_removed":
		return uc.handleReaction(ctx, raw, event.ReactionRemoved)

	case "member_joined_channel":
		return uc.handleMembership(ctx, raw, true)

	case "member_left_channel":
		return uc.handleMembership(ctx, raw, false)

	case "user_typing":
		uc.bus.PublishSync(event.Event{
			Type: event.Typing,
			Team: raw.TeamID,
			Data: event.TypingPayload{User: raw.User, Channel: raw.Channel},
		})
		return nil

	case "presence_change":
		uc.bus.PublishSync(event.Event{
			Type: event.PresenceChange,
			Team: raw.TeamID,
			Data: event.PresencePayload{User: raw.User, Presence: raw.Text},
		})
		return nil

	case "team_rename":
		_, err := uc.UpsertTeam(ctx, &model.TeamData{ID: raw.TeamID, Name: model.Ptr(raw.Name)})
		return err

	case "team_pref_change", "team_profile_change":
		return uc.refreshTeam(ctx, raw.TeamID)

	case "user_change":
		if raw.UserData == nil {
			return nil
		}
		if raw.UserData.TeamID == "" {
			raw.UserData.TeamID = raw.TeamID
		}
		_, err := uc.UpsertUser(ctx, raw.UserData, true)
		return err

	case "bot_added", "bot_changed":
		if raw.BotData == nil {
			return nil
		}
		raw.BotData.TeamID = raw.TeamID
		_, err := uc.UpsertBot(ctx, raw.BotData)
		return err

	case "channel_created", "channel_rename", "channel_archive":
		if raw.ChannelData == nil {
			return nil
		}
		raw.ChannelData.TeamID = raw.TeamID
		_, err := uc.UpsertChannel(ctx, raw.ChannelData, true)
		return err

	case "app_uninstalled", "tokens_revoked":
		return uc.RemoveTeam(ctx, raw.TeamID)
	}

	logging.From(ctx).Debug("unsupported raw event", "type", raw.Type)
	return nil
}

func (uc *UseCases) handleMessage(ctx context.Context, raw *model.RawEvent) error {
	if _, ok := suppressedSubtypes[raw.Subtype]; ok {
		return nil
	}

	actor := resolveActor(raw)

	// a bot actor must be resolvable by listeners before the message is
	// visible
	if raw.BotID != "" && uc.User(raw.TeamID, types.UserID(raw.BotID)) == nil {
		data := &model.UserData{
			ID:      types.UserID(raw.BotID),
			TeamID:  raw.TeamID,
			FullBot: model.Ptr(true),
		}
		if _, err := uc.UpsertUser(ctx, data, true); err != nil {
			return goerr.Wrap(err, "failed to register bot actor", goerr.V("bot_id", raw.BotID))
		}
	}

	switch raw.Subtype {
	case "message_changed":
		oldMsg := buildMessage(raw, raw.PreviousMessage, actor)
		newMsg := buildMessage(raw, raw.Message, actor)
		uc.bus.PublishSync(event.Event{
			Type: event.MessageChanged,
			Team: raw.TeamID,
			Data: event.MessageChange{Old: oldMsg, New: newMsg},
		})

	case "message_deleted":
		oldMsg := buildMessage(raw, raw.PreviousMessage, actor)
		uc.bus.PublishSync(event.Event{
			Type: event.MessageDeleted,
			Team: raw.TeamID,
			Data: oldMsg,
		})

	default:
		msg := buildMessage(raw, nil, actor)
		uc.bus.PublishSync(event.Event{
			Type: event.Message,
			Team: raw.TeamID,
			Data: msg,
		})
	}

	return nil
}

func (uc *UseCases) handleReaction(ctx context.Context, raw *model.RawEvent, t event.Type) error {
	reaction := &model.Reaction{
		TeamID:    raw.TeamID,
		ChannelID: raw.ItemChannel,
		UserID:    raw.User,
		Emoji:     raw.Emoji,
		ItemTS:    raw.ItemTS,
		ItemType:  raw.ItemType,
	}
	uc.bus.PublishSync(event.Event{Type: t, Team: raw.TeamID, Data: reaction})
	return nil
}

// handleMembership mutates the channel member set. Both the user and the
// channel must resolve; unresolved references are dropped with no partial
// mutation.
func (uc *UseCases) handleMembership(ctx context.Context, raw *model.RawEvent, joined bool) error {
	user := uc.User(raw.TeamID, raw.User)
	channel := uc.Channel(raw.TeamID, raw.Channel)
	if user == nil || channel == nil {
		return nil
	}

	uc.applyMembership(raw.TeamID, user, channel, joined)
	return nil
}

// applyMembership is the shared patch path for membership events and the
// server-confirmed invite/kick writes.
func (uc *UseCases) applyMembership(teamID types.TeamID, user *model.User, channel *model.Channel, joined bool) {
	lock := uc.teamLock(teamID)
	lock.Lock()
	defer lock.Unlock()

	t := event.MemberLeftChannel
	if joined {
		channel.AddMember(user.ID)
		t = event.MemberJoinedChannel
	} else {
		channel.RemoveMember(user.ID)
	}

	if !uc.isStartingUp(teamID) {
		uc.bus.PublishSync(event.Event{
			Type: t,
			Team: teamID,
			Data: event.Membership{User: user, Channel: channel},
		})
	}
}

// refreshTeam re-fetches team metadata before patching
func (uc *UseCases) refreshTeam(ctx context.Context, teamID types.TeamID) error {
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return nil
	}

	info, err := api.TeamInfo(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to refresh team metadata", goerr.V("team_id", teamID))
	}
	info.ID = teamID

	_, err = uc.UpsertTeam(ctx, info)
	return err
}

// resolveActor picks the acting user: the direct user field, the bot ID,
// then the same fields nested in the embedded payloads.
func resolveActor(raw *model.RawEvent) types.UserID {
	if raw.User != "" {
		return raw.User
	}
	if raw.BotID != "" {
		return types.UserID(raw.BotID)
	}
	for _, m := range []*model.RawMessage{raw.Message, raw.PreviousMessage} {
		if m == nil {
			continue
		}
		if m.User != "" {
			return m.User
		}
		if m.BotID != "" {
			return types.UserID(m.BotID)
		}
	}
	return ""
}

// buildMessage constructs the transient message value. When an embedded
// payload is given its fields take precedence over the envelope's.
func buildMessage(raw *model.RawEvent, embedded *model.RawMessage, actor types.UserID) *model.Message {
	msg := &model.Message{
		TeamID:    raw.TeamID,
		ChannelID: raw.Channel,
		UserID:    actor,
		BotID:     raw.BotID,
		Text:      raw.Text,
		Subtype:   raw.Subtype,
		TS:        raw.TS,
		ThreadTS:  raw.ThreadTS,
		EventTS:   raw.EventTS,
	}
	if embedded != nil {
		if embedded.User != "" {
			msg.UserID = embedded.User
		}
		if embedded.BotID != "" {
			msg.BotID = embedded.BotID
		}
		msg.Text = embedded.Text
		if embedded.TS != "" {
			msg.TS = embedded.TS
		}
		if embedded.ThreadTS != "" {
			msg.ThreadTS = embedded.ThreadTS
		}
	}
	return msg
}
