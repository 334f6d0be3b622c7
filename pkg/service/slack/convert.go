package slack

import (
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// ConvertRTMEvent maps a typed RTM event payload into the transport
// neutral raw event shape. Events the engine does not consume return nil.
func ConvertRTMEvent(data any, teamID types.TeamID) *model.RawEvent {
	switch ev := data.(type) {
	case *slack.MessageEvent:
		raw := &model.RawEvent{
			Type:     "message",
			Subtype:  ev.SubType,
			Source:   model.SourceStream,
			TeamID:   teamID,
			Channel:  types.ChannelID(ev.Channel),
			User:     types.UserID(ev.User),
			BotID:    types.BotID(ev.BotID),
			Text:     ev.Text,
			TS:       ev.Timestamp,
			ThreadTS: ev.ThreadTimestamp,
		}
		raw.Message = convertRawMsg(ev.SubMessage)
		raw.PreviousMessage = convertRawMsg(ev.PreviousMessage)
		return raw

	case *slack.ReactionAddedEvent:
		return convertReaction("reaction_added", ev.User, ev.ItemUser, ev.Reaction, ev.Item, ev.EventTimestamp, teamID)

	case *slack.ReactionRemovedEvent:
		return convertReaction("reaction_removed", ev.User, ev.ItemUser, ev.Reaction, ev.Item, ev.EventTimestamp, teamID)

	case *slack.UserTypingEvent:
		return &model.RawEvent{
			Type:    "user_typing",
			Source:  model.SourceStream,
			TeamID:  teamID,
			Channel: types.ChannelID(ev.Channel),
			User:    types.UserID(ev.User),
		}

	case *slack.PresenceChangeEvent:
		return &model.RawEvent{
			Type:   "presence_change",
			Source: model.SourceStream,
			TeamID: teamID,
			User:   types.UserID(ev.User),
			Text:   ev.Presence,
		}

	case *slack.MemberJoinedChannelEvent:
		return &model.RawEvent{
			Type:    "member_joined_channel",
			Source:  model.SourceStream,
			TeamID:  orTeam(ev.Team, teamID),
			Channel: types.ChannelID(ev.Channel),
			User:    types.UserID(ev.User),
			Inviter: types.UserID(ev.Inviter),
		}

	case *slack.MemberLeftChannelEvent:
		return &model.RawEvent{
			Type:    "member_left_channel",
			Source:  model.SourceStream,
			TeamID:  orTeam(ev.Team, teamID),
			Channel: types.ChannelID(ev.Channel),
			User:    types.UserID(ev.User),
		}

	case *slack.TeamRenameEvent:
		return &model.RawEvent{
			Type:   "team_rename",
			Source: model.SourceStream,
			TeamID: teamID,
			Name:   ev.Name,
		}

	case *slack.TeamPrefChangeEvent:
		return &model.RawEvent{
			Type:   "team_pref_change",
			Source: model.SourceStream,
			TeamID: teamID,
		}

	case *slack.UserChangeEvent:
		return &model.RawEvent{
			Type:     "user_change",
			Source:   model.SourceStream,
			TeamID:   teamID,
			User:     types.UserID(ev.User.ID),
			UserData: convertUser(&ev.User),
		}

	case *slack.BotAddedEvent:
		return &model.RawEvent{
			Type:    "bot_added",
			Source:  model.SourceStream,
			TeamID:  teamID,
			BotID:   types.BotID(ev.Bot.ID),
			BotData: convertBot(&ev.Bot),
		}

	case *slack.BotChangedEvent:
		return &model.RawEvent{
			Type:    "bot_changed",
			Source:  model.SourceStream,
			TeamID:  teamID,
			BotID:   types.BotID(ev.Bot.ID),
			BotData: convertBot(&ev.Bot),
		}

	case *slack.ChannelCreatedEvent:
		return &model.RawEvent{
			Type:    "channel_created",
			Source:  model.SourceStream,
			TeamID:  teamID,
			Channel: types.ChannelID(ev.Channel.ID),
			ChannelData: &model.ChannelData{
				ID:     types.ChannelID(ev.Channel.ID),
				TeamID: teamID,
				Name:   model.Ptr(ev.Channel.Name),
			},
		}

	case *slack.ChannelRenameEvent:
		return &model.RawEvent{
			Type:    "channel_rename",
			Source:  model.SourceStream,
			TeamID:  teamID,
			Channel: types.ChannelID(ev.Channel.ID),
			ChannelData: &model.ChannelData{
				ID:     types.ChannelID(ev.Channel.ID),
				TeamID: teamID,
				Name:   model.Ptr(ev.Channel.Name),
			},
		}

	case *slack.ChannelArchiveEvent:
		return &model.RawEvent{
			Type:    "channel_archive",
			Source:  model.SourceStream,
			TeamID:  teamID,
			Channel: types.ChannelID(ev.Channel),
			User:    types.UserID(ev.User),
			ChannelData: &model.ChannelData{
				ID:       types.ChannelID(ev.Channel),
				TeamID:   teamID,
				Archived: model.Ptr(true),
			},
		}
	}

	return nil
}

// ConvertWebhookEvent maps an Events API callback into the raw event
// shape, carrying the envelope's app and team identity for gating.
func ConvertWebhookEvent(ev *slackevents.EventsAPIEvent) *model.RawEvent {
	teamID := types.TeamID(ev.TeamID)
	appID := types.AppID(ev.APIAppID)

	var raw *model.RawEvent

	switch inner := ev.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		raw = &model.RawEvent{
			Type:     "message",
			Subtype:  inner.SubType,
			Channel:  types.ChannelID(inner.Channel),
			User:     types.UserID(inner.User),
			BotID:    types.BotID(inner.BotID),
			Text:     inner.Text,
			TS:       inner.TimeStamp,
			ThreadTS: inner.ThreadTimeStamp,
			EventTS:  inner.EventTimeStamp,
		}
		raw.Message = convertWebhookMsg(inner.Message)
		raw.PreviousMessage = convertWebhookMsg(inner.PreviousMessage)

	case *slackevents.ReactionAddedEvent:
		raw = &model.RawEvent{
			Type:        "reaction_added",
			User:        types.UserID(inner.User),
			ItemUser:    types.UserID(inner.ItemUser),
			Emoji:       inner.Reaction,
			ItemChannel: types.ChannelID(inner.Item.Channel),
			ItemTS:      inner.Item.Timestamp,
			ItemType:    inner.Item.Type,
			EventTS:     inner.EventTimestamp,
		}

	case *slackevents.ReactionRemovedEvent:
		raw = &model.RawEvent{
			Type:        "reaction_removed",
			User:        types.UserID(inner.User),
			ItemUser:    types.UserID(inner.ItemUser),
			Emoji:       inner.Reaction,
			ItemChannel: types.ChannelID(inner.Item.Channel),
			ItemTS:      inner.Item.Timestamp,
			ItemType:    inner.Item.Type,
			EventTS:     inner.EventTimestamp,
		}

	case *slackevents.MemberJoinedChannelEvent:
		raw = &model.RawEvent{
			Type:    "member_joined_channel",
			Channel: types.ChannelID(inner.Channel),
			User:    types.UserID(inner.User),
			Inviter: types.UserID(inner.Inviter),
		}

	case *slackevents.MemberLeftChannelEvent:
		raw = &model.RawEvent{
			Type:    "member_left_channel",
			Channel: types.ChannelID(inner.Channel),
			User:    types.UserID(inner.User),
		}

	case *slackevents.AppUninstalledEvent:
		raw = &model.RawEvent{
			Type: "app_uninstalled",
		}

	case *slackevents.TokensRevokedEvent:
		raw = &model.RawEvent{
			Type: "tokens_revoked",
		}
	}

	if raw == nil {
		return nil
	}

	raw.Source = model.SourceWebhook
	raw.TeamID = teamID
	raw.AppID = appID
	return raw
}

func convertReaction(name, user, itemUser, emoji string, item slack.ReactionItem, eventTS string, teamID types.TeamID) *model.RawEvent {
	return &model.RawEvent{
		Type:        name,
		Source:      model.SourceStream,
		TeamID:      teamID,
		User:        types.UserID(user),
		ItemUser:    types.UserID(itemUser),
		Emoji:       emoji,
		ItemChannel: types.ChannelID(item.Channel),
		ItemTS:      item.Timestamp,
		ItemType:    item.Type,
		EventTS:     eventTS,
	}
}

func convertRawMsg(msg *slack.Msg) *model.RawMessage {
	if msg == nil {
		return nil
	}
	return &model.RawMessage{
		User:     types.UserID(msg.User),
		BotID:    types.BotID(msg.BotID),
		Text:     msg.Text,
		Subtype:  msg.SubType,
		TS:       msg.Timestamp,
		ThreadTS: msg.ThreadTimestamp,
	}
}

func convertWebhookMsg(msg *slackevents.MessageEvent) *model.RawMessage {
	if msg == nil {
		return nil
	}
	return &model.RawMessage{
		User:     types.UserID(msg.User),
		BotID:    types.BotID(msg.BotID),
		Text:     msg.Text,
		Subtype:  msg.SubType,
		TS:       msg.TimeStamp,
		ThreadTS: msg.ThreadTimeStamp,
	}
}

func orTeam(team string, fallback types.TeamID) types.TeamID {
	if team != "" {
		return types.TeamID(team)
	}
	return fallback
}

func convertBot(b *slack.Bot) *model.BotData {
	return &model.BotData{
		ID:      types.BotID(b.ID),
		Name:    model.Ptr(b.Name),
		Deleted: model.Ptr(b.Deleted),
	}
}
