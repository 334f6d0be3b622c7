package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/event"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// fakeAPI is a scripted request API client
type fakeAPI struct {
	mu sync.Mutex

	teamInfo    *model.TeamData
	teamInfoErr error
	channels    []*model.ChannelData
	channelsErr error
	users       []*model.UserData

	created *model.ChannelData

	joined  []types.ChannelID
	joinErr error
	invited map[types.ChannelID][]types.UserID
	kicked  map[types.ChannelID][]types.UserID
	left    []types.ChannelID
	archive []types.ChannelID
}

var _ interfaces.API = &fakeAPI{}

func (f *fakeAPI) TeamInfo(ctx context.Context) (*model.TeamData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.teamInfoErr != nil {
		return nil, f.teamInfoErr
	}
	if f.teamInfo == nil {
		return nil, goerr.New("no team info scripted")
	}
	copied := *f.teamInfo
	return &copied, nil
}

func (f *fakeAPI) ListChannels(ctx context.Context) ([]*model.ChannelData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelsErr != nil {
		return nil, f.channelsErr
	}
	return f.channels, nil
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]*model.UserData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users, nil
}

func (f *fakeAPI) CreateChannel(ctx context.Context, name string, private bool) (*model.ChannelData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.created == nil {
		return nil, goerr.New("no created channel scripted")
	}
	return f.created, nil
}

func (f *fakeAPI) JoinChannel(ctx context.Context, channelID types.ChannelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joined = append(f.joined, channelID)
	return nil
}

func (f *fakeAPI) InviteToChannel(ctx context.Context, channelID types.ChannelID, userIDs ...types.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invited == nil {
		f.invited = make(map[types.ChannelID][]types.UserID)
	}
	f.invited[channelID] = append(f.invited[channelID], userIDs...)
	return nil
}

func (f *fakeAPI) KickFromChannel(ctx context.Context, channelID types.ChannelID, userID types.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kicked == nil {
		f.kicked = make(map[types.ChannelID][]types.UserID)
	}
	f.kicked[channelID] = append(f.kicked[channelID], userID)
	return nil
}

func (f *fakeAPI) LeaveChannel(ctx context.Context, channelID types.ChannelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, channelID)
	return nil
}

func (f *fakeAPI) ArchiveChannel(ctx context.Context, channelID types.ChannelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archive = append(f.archive, channelID)
	return nil
}

func (f *fakeAPI) joinedChannels() []types.ChannelID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.ChannelID{}, f.joined...)
}

// fakeSession is a scripted realtime session
type fakeSession struct {
	team   *model.TeamData
	self   *model.UserData
	events chan model.SessionEvent
	once   sync.Once
}

var _ interfaces.Session = &fakeSession{}

func newFakeSession(teamID types.TeamID, selfID types.UserID) *fakeSession {
	return &fakeSession{
		team:   &model.TeamData{ID: teamID, Name: model.Ptr("Acme")},
		self:   &model.UserData{ID: selfID, TeamID: teamID, Name: model.Ptr("bot")},
		events: make(chan model.SessionEvent, 16),
	}
}

func (s *fakeSession) Team() *model.TeamData             { return s.team }
func (s *fakeSession) Self() *model.UserData             { return s.self }
func (s *fakeSession) Events() <-chan model.SessionEvent { return s.events }
func (s *fakeSession) push(ev model.SessionEvent)        { s.events <- ev }
func (s *fakeSession) drop()                             { s.push(model.SessionEvent{Type: model.SessionDisconnected}) }

func (s *fakeSession) Disconnect() error {
	s.once.Do(func() { close(s.events) })
	return nil
}

// fakeStream hands out scripted sessions in order. When the queue runs
// dry it fails.
type fakeStream struct {
	mu    sync.Mutex
	queue []interfaces.Session
	errs  []error
	calls int
}

var _ interfaces.Stream = &fakeStream{}

func (s *fakeStream) Start(ctx context.Context, token string) (interfaces.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if len(s.queue) == 0 {
		return nil, goerr.New("no session scripted")
	}
	sess := s.queue[0]
	s.queue = s.queue[1:]
	return sess, nil
}

func (s *fakeStream) startCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeOAuth returns a scripted exchange result
type fakeOAuth struct {
	result *interfaces.OAuthResult
	err    error
}

var _ interfaces.OAuth = &fakeOAuth{}

func (o *fakeOAuth) Exchange(ctx context.Context, code string) (*interfaces.OAuthResult, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.result, nil
}

// recorder collects published domain events
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) handle(ev event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event{}, r.events...)
}

func (r *recorder) byType(t event.Type) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// waitFor polls a condition until it holds or the timeout expires
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
