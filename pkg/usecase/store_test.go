package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gyges/pkg/domain/event"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/repository/memory"
	"github.com/secmon-lab/gyges/pkg/usecase"
)

func newEngine(t *testing.T, opts ...usecase.Option) (*usecase.UseCases, *recorder) {
	t.Helper()

	bus := event.NewBus()
	t.Cleanup(func() {
		gt.NoError(t, bus.Close())
	})

	uc := usecase.New(memory.New(), bus, opts...)

	rec := &recorder{}
	bus.SubscribeAll(rec.handle)
	return uc, rec
}

func TestUpsertTeamEmitsAddThenChange(t *testing.T) {
	uc, rec := newEngine(t)
	ctx := context.Background()

	team, err := uc.UpsertTeam(ctx, &model.TeamData{ID: "T1", Name: model.Ptr("Acme")})
	gt.NoError(t, err)
	gt.Value(t, team.Name).Equal("Acme")

	adds := rec.byType(event.AddTeam)
	gt.Array(t, adds).Length(1)
	gt.Value(t, adds[0].Team).Equal(team.ID)

	again, err := uc.UpsertTeam(ctx, &model.TeamData{ID: "T1", Domain: model.Ptr("acme")})
	gt.NoError(t, err)

	// Upserts patch the one canonical record in place
	gt.Value(t, again).Equal(team)
	gt.Value(t, again.FakeID).Equal(team.FakeID)
	gt.Value(t, again.Name).Equal("Acme")
	gt.Value(t, again.Domain).Equal("acme")

	changes := rec.byType(event.ChangeTeam)
	gt.Array(t, changes).Length(1)
	change := changes[0].Data.(event.TeamChange)
	gt.Value(t, change.Old.Domain).Equal("")
	gt.Value(t, change.New.Domain).Equal("acme")

	gt.Array(t, rec.byType(event.AddTeam)).Length(1)
}

func TestUpsertUserUnknownTeamDropped(t *testing.T) {
	uc, rec := newEngine(t)
	ctx := context.Background()

	user, err := uc.UpsertUser(ctx, &model.UserData{ID: "U1", TeamID: "T-unknown"}, false)
	gt.NoError(t, err)
	gt.Value(t, user).Nil()
	gt.Array(t, rec.all()).Length(0)
}

func TestUpsertUserAutoCreatesTeam(t *testing.T) {
	api := &fakeAPI{teamInfo: &model.TeamData{ID: "T1", Name: model.Ptr("Acme")}}
	uc, rec := newEngine(t, usecase.WithAPIFactory(func(token string) interfaces.API {
		return api
	}))
	ctx := context.Background()

	cred := &model.Credential{Token: "xoxb-1", TeamID: "T1", CreatedAt: time.Now()}
	gt.NoError(t, uc.Repo().Credential().Put(ctx, cred))

	user, err := uc.UpsertUser(ctx, &model.UserData{ID: "U1", TeamID: "T1", Name: model.Ptr("alice")}, true)
	gt.NoError(t, err)
	gt.Value(t, user).NotNil()

	team := uc.Team("T1")
	gt.Value(t, team).NotNil()
	gt.Value(t, team.Name).Equal("Acme")
	gt.Value(t, team.Users["U1"]).Equal(user)

	gt.Array(t, rec.byType(event.AddTeam)).Length(1)
	gt.Array(t, rec.byType(event.AddUser)).Length(1)
}

func TestUpsertUserTeamResolutionFailureDropsSilently(t *testing.T) {
	api := &fakeAPI{teamInfoErr: goerr.New("boom")}
	uc, rec := newEngine(t, usecase.WithAPIFactory(func(token string) interfaces.API {
		return api
	}))
	ctx := context.Background()

	cred := &model.Credential{Token: "xoxb-1", TeamID: "T1", CreatedAt: time.Now()}
	gt.NoError(t, uc.Repo().Credential().Put(ctx, cred))

	user, err := uc.UpsertUser(ctx, &model.UserData{ID: "U1", TeamID: "T1"}, true)
	gt.NoError(t, err)
	gt.Value(t, user).Nil()
	gt.Value(t, uc.Team("T1")).Nil()
	gt.Array(t, rec.all()).Length(0)
}

func TestFullBotChangeSuppressed(t *testing.T) {
	uc, rec := newEngine(t)
	ctx := context.Background()

	_, err := uc.UpsertTeam(ctx, &model.TeamData{ID: "T1"})
	gt.NoError(t, err)
	rec.reset()

	// the add event for a synthetic bot identity is still visible
	bot, err := uc.UpsertUser(ctx, &model.UserData{
		ID: "B1", TeamID: "T1", FullBot: model.Ptr(true),
	}, false)
	gt.NoError(t, err)
	gt.Value(t, bot.FullBot).Equal(true)
	gt.Array(t, rec.byType(event.AddUser)).Length(1)

	// change events are not
	_, err = uc.UpsertUser(ctx, &model.UserData{
		ID: "B1", TeamID: "T1", Name: model.Ptr("renamed"),
	}, false)
	gt.NoError(t, err)
	gt.Array(t, rec.byType(event.ChangeUser)).Length(0)
	gt.Value(t, uc.User("T1", "B1").Name).Equal("renamed")
}

func TestUserChangeEmitsOldAndNew(t *testing.T) {
	uc, rec := newEngine(t)
	ctx := context.Background()

	_, err := uc.UpsertTeam(ctx, &model.TeamData{ID: "T1"})
	gt.NoError(t, err)
	_, err = uc.UpsertUser(ctx, &model.UserData{ID: "U1", TeamID: "T1", Name: model.Ptr("alice")}, false)
	gt.NoError(t, err)
	rec.reset()

	_, err = uc.UpsertUser(ctx, &model.UserData{ID: "U1", TeamID: "T1", Name: model.Ptr("alicia")}, false)
	gt.NoError(t, err)

	changes := rec.byType(event.ChangeUser)
	gt.Array(t, changes).Length(1)
	change := changes[0].Data.(event.UserChange)
	gt.Value(t, change.Old.Name).Equal("alice")
	gt.Value(t, change.New.Name).Equal("alicia")
}

func TestUpsertChannelAutoJoin(t *testing.T) {
	api := &fakeAPI{}
	uc, rec := newEngine(t, usecase.WithAPIFactory(func(token string) interfaces.API {
		return api
	}))
	ctx := context.Background()

	_, err := uc.UpsertTeam(ctx, &model.TeamData{ID: "T1"})
	gt.NoError(t, err)
	cred := &model.Credential{Token: "xoxb-1", TeamID: "T1", CreatedAt: time.Now()}
	gt.NoError(t, uc.Repo().Credential().Put(ctx, cred))
	rec.reset()

	ch, err := uc.UpsertChannel(ctx, &model.ChannelData{
		ID: "C1", TeamID: "T1", Name: model.Ptr("general"),
	}, false)
	gt.NoError(t, err)
	gt.Value(t, ch).NotNil()

	gt.Array(t, rec.byType(event.AddChannel)).Length(1)

	// the join is asynchronous and best-effort
	ok := waitFor(time.Second, func() bool {
		return len(api.joinedChannels()) == 1
	})
	gt.Bool(t, ok).True()
	gt.Value(t, api.joinedChannels()[0]).Equal(ch.ID)
}

func TestUpsertChannelNoJoinForPrivate(t *testing.T) {
	api := &fakeAPI{}
	uc, _ := newEngine(t, usecase.WithAPIFactory(func(token string) interfaces.API {
		return api
	}))
	ctx := context.Background()

	_, err := uc.UpsertTeam(ctx, &model.TeamData{ID: "T1"})
	gt.NoError(t, err)
	cred := &model.Credential{Token: "xoxb-1", TeamID: "T1", CreatedAt: time.Now()}
	gt.NoError(t, uc.Repo().Credential().Put(ctx, cred))

	_, err = uc.UpsertChannel(ctx, &model.ChannelData{
		ID: "C1", TeamID: "T1", IsPrivate: model.Ptr(true),
	}, false)
	gt.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	gt.Array(t, api.joinedChannels()).Length(0)
}

func TestUpsertBotHasNoEvents(t *testing.T) {
	uc, rec := newEngine(t)
	ctx := context.Background()

	_, err := uc.UpsertTeam(ctx, &model.TeamData{ID: "T1"})
	gt.NoError(t, err)
	rec.reset()

	bot, err := uc.UpsertBot(ctx, &model.BotData{ID: "B1", TeamID: "T1", Name: model.Ptr("deploybot")})
	gt.NoError(t, err)
	gt.Value(t, bot.Name).Equal("deploybot")
	gt.Array(t, rec.all()).Length(0)

	_, err = uc.UpsertBot(ctx, &model.BotData{ID: "B1", TeamID: "T1", Name: model.Ptr("renamed")})
	gt.NoError(t, err)
	gt.Value(t, uc.Bot("T1", "B1").Name).Equal("renamed")
	gt.Array(t, rec.all()).Length(0)
}

// Lookups and upserts for one team run concurrently in production: the
// stream pump writes while webhook-dispatched handlers read. Run with
// -race.
func TestConcurrentUpsertAndLookup(t *testing.T) {
	uc, _ := newEngine(t)
	ctx := context.Background()

	_, err := uc.UpsertTeam(ctx, &model.TeamData{ID: "T1"})
	gt.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				user := &model.UserData{
					ID:     types.UserID(fmt.Sprintf("U%d-%d", i, n)),
					TeamID: "T1",
				}
				if _, err := uc.UpsertUser(ctx, user, false); err != nil {
					t.Errorf("upsert user: %v", err)
				}
				channel := &model.ChannelData{
					ID:     types.ChannelID(fmt.Sprintf("C%d-%d", i, n)),
					TeamID: "T1",
				}
				if _, err := uc.UpsertChannel(ctx, channel, false); err != nil {
					t.Errorf("upsert channel: %v", err)
				}
			}
		}()

		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				uc.User("T1", types.UserID(fmt.Sprintf("U%d-%d", i, n)))
				uc.Channel("T1", types.ChannelID(fmt.Sprintf("C%d-%d", i, n)))
				uc.Bot("T1", "B1")
			}
		}()
	}
	wg.Wait()

	gt.Value(t, uc.User("T1", "U0-0")).NotNil()
	gt.Value(t, uc.Channel("T1", "C3-99")).NotNil()
}
