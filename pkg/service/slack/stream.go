package slack

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/slack-go/slack"
)

// stream implements interfaces.Stream over the Slack RTM API
type stream struct{}

var _ interfaces.Stream = &stream{}

// NewStream creates the RTM-backed realtime transport
func NewStream() interfaces.Stream {
	return &stream{}
}

// Start opens an RTM connection and blocks until the handshake completes.
// Reconnection is owned by the caller: the session reports a single
// disconnect and then ends.
func (s *stream) Start(ctx context.Context, token string) (interfaces.Session, error) {
	api := slack.New(token)
	rtm := api.NewRTM()
	go rtm.ManageConnection()

	for {
		select {
		case <-ctx.Done():
			if err := rtm.Disconnect(); err != nil {
				return nil, goerr.Wrap(ctx.Err(), "realtime start canceled", goerr.V("disconnect_error", err.Error()))
			}
			return nil, goerr.Wrap(ctx.Err(), "realtime start canceled")

		case ev, ok := <-rtm.IncomingEvents:
			if !ok {
				return nil, goerr.New("realtime event stream closed during handshake")
			}

			switch data := ev.Data.(type) {
			case *slack.ConnectedEvent:
				sess := newSession(rtm, data.Info)
				go sess.pump()
				return sess, nil

			case *slack.InvalidAuthEvent:
				_ = rtm.Disconnect()
				return nil, goerr.New("realtime authentication rejected")

			case *slack.ConnectionErrorEvent:
				_ = rtm.Disconnect()
				if strings.Contains(data.Error(), "not_allowed_token_type") {
					return nil, goerr.Wrap(interfaces.ErrNotAllowedTokenType, "realtime session unavailable for token")
				}
				return nil, goerr.Wrap(data.ErrorObj, "realtime connection failed")
			}
		}
	}
}

// session is one live RTM connection
type session struct {
	rtm    *slack.RTM
	team   *model.TeamData
	self   *model.UserData
	teamID types.TeamID

	events chan model.SessionEvent
	once   sync.Once
}

var _ interfaces.Session = &session{}

func newSession(rtm *slack.RTM, info *slack.Info) *session {
	sess := &session{
		rtm:    rtm,
		events: make(chan model.SessionEvent, 64),
	}

	if info != nil && info.Team != nil {
		sess.teamID = types.TeamID(info.Team.ID)
		sess.team = &model.TeamData{
			ID:     sess.teamID,
			Name:   model.Ptr(info.Team.Name),
			Domain: model.Ptr(info.Team.Domain),
		}
	}
	if info != nil && info.User != nil {
		sess.self = &model.UserData{
			ID:     types.UserID(info.User.ID),
			TeamID: sess.teamID,
			Name:   model.Ptr(info.User.Name),
		}
	}

	return sess
}

func (s *session) Team() *model.TeamData {
	return s.team
}

func (s *session) Self() *model.UserData {
	return s.self
}

func (s *session) Events() <-chan model.SessionEvent {
	return s.events
}

// Disconnect tears the connection down. The event channel closes once
// the pump observes the disconnect.
func (s *session) Disconnect() error {
	if err := s.rtm.Disconnect(); err != nil {
		return goerr.Wrap(err, "failed to disconnect realtime session")
	}
	return nil
}

// pump translates RTM events into session events until the connection
// drops. slack-go would reconnect on its own; the first disconnect ends
// the session instead so the supervisor controls retry timing.
func (s *session) pump() {
	defer s.once.Do(func() { close(s.events) })

	s.events <- model.SessionEvent{Type: model.SessionReady}

	for ev := range s.rtm.IncomingEvents {
		switch data := ev.Data.(type) {
		case *slack.DisconnectedEvent:
			s.events <- model.SessionEvent{Type: model.SessionDisconnected, Err: data.Cause}
			_ = s.rtm.Disconnect()
			return

		case *slack.RTMError:
			s.events <- model.SessionEvent{Type: model.SessionDisconnected, Err: data}
			_ = s.rtm.Disconnect()
			return

		default:
			if raw := ConvertRTMEvent(ev.Data, s.teamID); raw != nil {
				s.events <- model.SessionEvent{Type: model.SessionRaw, Raw: raw}
			}
		}
	}
}
