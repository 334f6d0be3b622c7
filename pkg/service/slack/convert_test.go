package slack_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	svcslack "github.com/secmon-lab/gyges/pkg/service/slack"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

func TestConvertRTMMessage(t *testing.T) {
	ev := &slack.MessageEvent{
		Msg: slack.Msg{
			Type:            "message",
			Channel:         "C1",
			User:            "U1",
			Text:            "hello",
			Timestamp:       "1000.0001",
			ThreadTimestamp: "999.0001",
		},
	}

	raw := svcslack.ConvertRTMEvent(ev, "T1")
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("message")
	gt.Value(t, raw.Source).Equal(model.SourceStream)
	gt.Value(t, raw.TeamID.String()).Equal("T1")
	gt.Value(t, raw.Channel.String()).Equal("C1")
	gt.Value(t, raw.User.String()).Equal("U1")
	gt.Value(t, raw.Text).Equal("hello")
	gt.Value(t, raw.TS).Equal("1000.0001")
	gt.Value(t, raw.ThreadTS).Equal("999.0001")
}

func TestConvertRTMMessageChanged(t *testing.T) {
	ev := &slack.MessageEvent{
		Msg: slack.Msg{
			Type:      "message",
			SubType:   "message_changed",
			Channel:   "C1",
			Timestamp: "1002.0001",
		},
		SubMessage: &slack.Msg{
			User:      "U1",
			Text:      "edited",
			Timestamp: "1000.0001",
		},
		PreviousMessage: &slack.Msg{
			User:      "U1",
			Text:      "original",
			Timestamp: "1000.0001",
		},
	}

	raw := svcslack.ConvertRTMEvent(ev, "T1")
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Subtype).Equal("message_changed")
	gt.Value(t, raw.Message).NotNil().Required()
	gt.Value(t, raw.Message.Text).Equal("edited")
	gt.Value(t, raw.PreviousMessage).NotNil().Required()
	gt.Value(t, raw.PreviousMessage.Text).Equal("original")
}

func TestConvertRTMReactions(t *testing.T) {
	added := &slack.ReactionAddedEvent{
		User:           "U1",
		ItemUser:       "U2",
		Reaction:       "eyes",
		EventTimestamp: "1003.0001",
		Item: slack.ReactionItem{
			Type:      "message",
			Channel:   "C1",
			Timestamp: "1000.0001",
		},
	}

	raw := svcslack.ConvertRTMEvent(added, "T1")
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("reaction_added")
	gt.Value(t, raw.User.String()).Equal("U1")
	gt.Value(t, raw.ItemUser.String()).Equal("U2")
	gt.Value(t, raw.Emoji).Equal("eyes")
	gt.Value(t, raw.ItemChannel.String()).Equal("C1")
	gt.Value(t, raw.ItemTS).Equal("1000.0001")

	removed := &slack.ReactionRemovedEvent{
		User:     "U1",
		Reaction: "eyes",
		Item:     slack.ReactionItem{Type: "message", Channel: "C1", Timestamp: "1000.0001"},
	}
	raw = svcslack.ConvertRTMEvent(removed, "T1")
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("reaction_removed")
}

func TestConvertRTMMembership(t *testing.T) {
	joined := &slack.MemberJoinedChannelEvent{
		Channel: "C1",
		User:    "U2",
		Inviter: "U1",
		Team:    "T9",
	}

	raw := svcslack.ConvertRTMEvent(joined, "T1")
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("member_joined_channel")
	gt.Value(t, raw.TeamID.String()).Equal("T9")
	gt.Value(t, raw.Inviter.String()).Equal("U1")

	left := &slack.MemberLeftChannelEvent{Channel: "C1", User: "U2"}
	raw = svcslack.ConvertRTMEvent(left, "T1")
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("member_left_channel")
	gt.Value(t, raw.TeamID.String()).Equal("T1")
}

func TestConvertRTMUserChange(t *testing.T) {
	ev := &slack.UserChangeEvent{
		User: slack.User{
			ID:       "U1",
			TeamID:   "T1",
			Name:     "alice",
			RealName: "Alice Doe",
		},
	}

	raw := svcslack.ConvertRTMEvent(ev, "T1")
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("user_change")
	gt.Value(t, raw.User.String()).Equal("U1")
	gt.Value(t, raw.UserData).NotNil().Required()
	gt.Value(t, *raw.UserData.Name).Equal("alice")
}

func TestConvertRTMChannelLifecycle(t *testing.T) {
	created := &slack.ChannelCreatedEvent{
		Channel: slack.ChannelCreatedInfo{ID: "C9", Name: "newborn"},
	}
	raw := svcslack.ConvertRTMEvent(created, "T1")
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("channel_created")
	gt.Value(t, raw.Channel.String()).Equal("C9")
	gt.Value(t, *raw.ChannelData.Name).Equal("newborn")

	archived := &slack.ChannelArchiveEvent{Channel: "C9", User: "U1"}
	raw = svcslack.ConvertRTMEvent(archived, "T1")
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("channel_archive")
	gt.Value(t, *raw.ChannelData.Archived).Equal(true)
}

func TestConvertRTMUnknownEvent(t *testing.T) {
	raw := svcslack.ConvertRTMEvent(&slack.HelloEvent{}, "T1")
	gt.Value(t, raw).Nil()
}

func TestConvertWebhookMessage(t *testing.T) {
	ev := &slackevents.EventsAPIEvent{
		TeamID:   "T1",
		APIAppID: "A1",
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Type: "message",
			Data: &slackevents.MessageEvent{
				Type:      "message",
				Channel:   "C1",
				User:      "U1",
				Text:      "from webhook",
				TimeStamp: "1000.0001",
			},
		},
	}

	raw := svcslack.ConvertWebhookEvent(ev)
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("message")
	gt.Value(t, raw.Source).Equal(model.SourceWebhook)
	gt.Value(t, raw.TeamID.String()).Equal("T1")
	gt.Value(t, raw.AppID.String()).Equal("A1")
	gt.Value(t, raw.Text).Equal("from webhook")
}

func TestConvertWebhookReaction(t *testing.T) {
	ev := &slackevents.EventsAPIEvent{
		TeamID:   "T1",
		APIAppID: "A1",
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Type: "reaction_added",
			Data: &slackevents.ReactionAddedEvent{
				User:     "U1",
				ItemUser: "U2",
				Reaction: "wave",
				Item: slackevents.Item{
					Type:      "message",
					Channel:   "C1",
					Timestamp: "1000.0001",
				},
			},
		},
	}

	raw := svcslack.ConvertWebhookEvent(ev)
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("reaction_added")
	gt.Value(t, raw.Emoji).Equal("wave")
	gt.Value(t, raw.ItemChannel.String()).Equal("C1")
	gt.Value(t, raw.Source).Equal(model.SourceWebhook)
}

func TestConvertWebhookUninstall(t *testing.T) {
	ev := &slackevents.EventsAPIEvent{
		TeamID:   "T1",
		APIAppID: "A1",
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Type: "app_uninstalled",
			Data: &slackevents.AppUninstalledEvent{Type: "app_uninstalled"},
		},
	}

	raw := svcslack.ConvertWebhookEvent(ev)
	gt.Value(t, raw).NotNil().Required()
	gt.Value(t, raw.Type).Equal("app_uninstalled")
	gt.Value(t, raw.TeamID.String()).Equal("T1")
}

func TestConvertWebhookUnknownEvent(t *testing.T) {
	ev := &slackevents.EventsAPIEvent{
		TeamID:   "T1",
		APIAppID: "A1",
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Type: "pin_added",
			Data: &slackevents.PinAddedEvent{},
		},
	}

	gt.Value(t, svcslack.ConvertWebhookEvent(ev)).Nil()
}
