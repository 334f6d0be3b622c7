package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/event"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/utils/async"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
)

// Team returns the team for an ID, or nil if unknown
func (uc *UseCases) Team(id types.TeamID) *model.Team {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.teams[id]
}

// Teams returns all registered teams
func (uc *UseCases) Teams() []*model.Team {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	result := make([]*model.Team, 0, len(uc.teams))
	for _, t := range uc.teams {
		result = append(result, t)
	}
	return result
}

// User returns the user for an (id, teamID) pair, or nil. Entity map
// lookups take the same per-team lock as the upsert path so a read never
// races an in-flight write.
func (uc *UseCases) User(teamID types.TeamID, id types.UserID) *model.User {
	team := uc.Team(teamID)
	if team == nil {
		return nil
	}

	lock := uc.teamLock(teamID)
	lock.Lock()
	defer lock.Unlock()
	return team.Users[id]
}

// Channel returns the channel for an (id, teamID) pair, or nil
func (uc *UseCases) Channel(teamID types.TeamID, id types.ChannelID) *model.Channel {
	team := uc.Team(teamID)
	if team == nil {
		return nil
	}

	lock := uc.teamLock(teamID)
	lock.Lock()
	defer lock.Unlock()
	return team.Channels[id]
}

// Bot returns the bot for an (id, teamID) pair, or nil
func (uc *UseCases) Bot(teamID types.TeamID, id types.BotID) *model.Bot {
	team := uc.Team(teamID)
	if team == nil {
		return nil
	}

	lock := uc.teamLock(teamID)
	lock.Lock()
	defer lock.Unlock()
	return team.Bots[id]
}

// UpsertTeam creates or patches a team. Outside startup suppression it
// emits exactly one addTeam or changeTeam event.
func (uc *UseCases) UpsertTeam(ctx context.Context, data *model.TeamData) (*model.Team, error) {
	if err := data.Validate(); err != nil {
		return nil, goerr.Wrap(err, "upsert team")
	}

	lock := uc.teamLock(data.ID)
	lock.Lock()
	defer lock.Unlock()

	uc.mu.Lock()
	team, exists := uc.teams[data.ID]
	if !exists {
		team = model.NewTeam(data)
		uc.teams[data.ID] = team
	}
	uc.mu.Unlock()

	if !exists {
		if !uc.isStartingUp(team.ID) {
			uc.bus.PublishSync(event.Event{Type: event.AddTeam, Team: team.ID, Data: team})
		}
		return team, nil
	}

	old := team.Clone()
	team.Patch(data)
	if !uc.isStartingUp(team.ID) {
		uc.bus.PublishSync(event.Event{
			Type: event.ChangeTeam,
			Team: team.ID,
			Data: event.TeamChange{Old: old, New: team},
		})
	}
	return team, nil
}

// UpsertUser creates or patches a user. When the owning team is unknown
// and autoCreateTeam is set, the team is resolved once via the request
// API; if resolution fails or autoCreateTeam is off, the upsert is
// silently dropped (returns nil, nil).
func (uc *UseCases) UpsertUser(ctx context.Context, data *model.UserData, autoCreateTeam bool) (*model.User, error) {
	if err := data.Validate(); err != nil {
		return nil, goerr.Wrap(err, "upsert user")
	}

	team := uc.Team(data.TeamID)
	if team == nil {
		if !autoCreateTeam {
			return nil, nil
		}
		var err error
		team, err = uc.resolveTeam(ctx, data.TeamID)
		if team == nil || err != nil {
			if err != nil {
				logging.From(ctx).Warn("dropping user upsert, team resolution failed",
					"team_id", data.TeamID, "user_id", data.ID, "error", err)
			}
			return nil, nil
		}
		data.TeamID = team.ID
	}

	lock := uc.teamLock(team.ID)
	lock.Lock()
	defer lock.Unlock()

	user, exists := team.Users[data.ID]
	if !exists {
		user = model.NewUser(data)
		user.TeamID = team.ID
		team.Users[data.ID] = user

		if !uc.isStartingUp(team.ID) {
			uc.bus.PublishSync(event.Event{Type: event.AddUser, Team: team.ID, Data: user})
		}
		return user, nil
	}

	old := user.Clone()
	user.Patch(data)

	// change events are withheld for synthetic full-bot identities;
	// add events for the same are not
	if !uc.isStartingUp(team.ID) && !user.FullBot {
		uc.bus.PublishSync(event.Event{
			Type: event.ChangeUser,
			Team: team.ID,
			Data: event.UserChange{Old: old, New: user},
		})
	}
	return user, nil
}

// UpsertChannel creates or patches a channel, with the same unknown-team
// behavior as UpsertUser. Newly created channels outside startup trigger
// a best-effort join; join failure never blocks the add event.
func (uc *UseCases) UpsertChannel(ctx context.Context, data *model.ChannelData, autoCreateTeam bool) (*model.Channel, error) {
	if err := data.Validate(); err != nil {
		return nil, goerr.Wrap(err, "upsert channel")
	}

	team := uc.Team(data.TeamID)
	if team == nil {
		if !autoCreateTeam {
			return nil, nil
		}
		var err error
		team, err = uc.resolveTeam(ctx, data.TeamID)
		if team == nil || err != nil {
			if err != nil {
				logging.From(ctx).Warn("dropping channel upsert, team resolution failed",
					"team_id", data.TeamID, "channel_id", data.ID, "error", err)
			}
			return nil, nil
		}
		data.TeamID = team.ID
	}

	lock := uc.teamLock(team.ID)
	lock.Lock()
	defer lock.Unlock()

	channel, exists := team.Channels[data.ID]
	if !exists {
		channel = model.NewChannel(data)
		channel.TeamID = team.ID
		team.Channels[data.ID] = channel

		startingUp := uc.isStartingUp(team.ID)
		if !startingUp {
			uc.autoJoin(ctx, team.ID, channel)
			uc.bus.PublishSync(event.Event{Type: event.AddChannel, Team: team.ID, Data: channel})
		}
		return channel, nil
	}

	old := channel.Clone()
	channel.Patch(data)
	if !uc.isStartingUp(team.ID) {
		uc.bus.PublishSync(event.Event{
			Type: event.ChangeChannel,
			Team: team.ID,
			Data: event.ChannelChange{Old: old, New: channel},
		})
	}
	return channel, nil
}

// UpsertBot creates or patches a bot record. Bots have no add/change
// events in the domain vocabulary.
func (uc *UseCases) UpsertBot(ctx context.Context, data *model.BotData) (*model.Bot, error) {
	if err := data.Validate(); err != nil {
		return nil, goerr.Wrap(err, "upsert bot")
	}

	team := uc.Team(data.TeamID)
	if team == nil {
		return nil, nil
	}

	lock := uc.teamLock(team.ID)
	lock.Lock()
	defer lock.Unlock()

	bot, exists := team.Bots[data.ID]
	if !exists {
		bot = model.NewBot(data)
		bot.TeamID = team.ID
		team.Bots[data.ID] = bot
		return bot, nil
	}

	bot.Patch(data)
	return bot, nil
}

// resolveTeam fetches team metadata through the request API and registers
// the team. Retried at most once by callers: a nil result means the
// entity upsert is dropped.
func (uc *UseCases) resolveTeam(ctx context.Context, teamID types.TeamID) (*model.Team, error) {
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return nil, nil
	}

	info, err := api.TeamInfo(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch team info", goerr.V("team_id", teamID))
	}

	return uc.UpsertTeam(ctx, info)
}

// apiFor returns the request API client for a team: the registered one
// if a session is live, otherwise one built from the stored credential.
func (uc *UseCases) apiFor(ctx context.Context, teamID types.TeamID) interfaces.API {
	uc.mu.RLock()
	api, ok := uc.apis[teamID]
	factory := uc.apiFactory
	uc.mu.RUnlock()
	if ok {
		return api
	}
	if factory == nil || uc.repo == nil {
		return nil
	}

	cred, err := uc.repo.Credential().Get(ctx, teamID)
	if err != nil {
		return nil
	}

	api = factory(cred.Token)
	uc.mu.Lock()
	uc.apis[teamID] = api
	uc.mu.Unlock()
	return api
}

// autoJoin is the best-effort join side effect for newly sighted channels
func (uc *UseCases) autoJoin(ctx context.Context, teamID types.TeamID, channel *model.Channel) {
	if channel.IsPrivate || channel.IsIM || channel.IsMember {
		return
	}
	api := uc.apiFor(ctx, teamID)
	if api == nil {
		return
	}

	channelID := channel.ID
	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := api.JoinChannel(ctx, channelID); err != nil {
			// swallowed: join failure must not block the add event
			logging.From(ctx).Warn("channel auto-join failed",
				"team_id", teamID, "channel_id", channelID, "error", err)
		}
		return nil
	})
}
