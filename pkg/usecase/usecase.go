// Package usecase implements the entity synchronization engine: the
// in-memory graph of teams, users, channels and bots, the per-team
// connection lifecycle, and the classification of inbound raw events
// into domain events.
package usecase

import (
	"sync"
	"time"

	"github.com/secmon-lab/gyges/pkg/domain/event"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// DefaultReconnectDelay is the fixed delay before the single reconnect
// attempt after a session drop.
const DefaultReconnectDelay = 15 * time.Second

// UseCases is the synchronization engine. All entity state is owned here
// and mutated only through the upsert path.
type UseCases struct {
	repo       interfaces.Repository
	bus        *event.Bus
	stream     interfaces.Stream
	apiFactory interfaces.APIFactory
	oauth      interfaces.OAuth
	appID      types.AppID

	reconnectDelay time.Duration

	mu         sync.RWMutex
	teams      map[types.TeamID]*model.Team
	teamLocks  map[types.TeamID]*sync.Mutex
	apis       map[types.TeamID]interfaces.API
	sessions   map[types.TeamID]interfaces.Session
	startingUp map[types.TeamID]bool
	reconnects map[types.TeamID]*time.Timer
	closed     bool
}

// Option configures the engine
type Option func(*UseCases)

// WithStream sets the realtime transport
func WithStream(s interfaces.Stream) Option {
	return func(uc *UseCases) {
		uc.stream = s
	}
}

// WithAPIFactory sets the request API client factory
func WithAPIFactory(f interfaces.APIFactory) Option {
	return func(uc *UseCases) {
		uc.apiFactory = f
	}
}

// WithOAuth sets the OAuth code exchanger
func WithOAuth(o interfaces.OAuth) Option {
	return func(uc *UseCases) {
		uc.oauth = o
	}
}

// WithAppID sets the installed app ID used to gate webhook events and
// validate OAuth results
func WithAppID(id types.AppID) Option {
	return func(uc *UseCases) {
		uc.appID = id
	}
}

// WithReconnectDelay overrides the reconnect delay
func WithReconnectDelay(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.reconnectDelay = d
	}
}

// New creates the engine
func New(repo interfaces.Repository, bus *event.Bus, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:           repo,
		bus:            bus,
		reconnectDelay: DefaultReconnectDelay,
		teams:          make(map[types.TeamID]*model.Team),
		teamLocks:      make(map[types.TeamID]*sync.Mutex),
		apis:           make(map[types.TeamID]interfaces.API),
		sessions:       make(map[types.TeamID]interfaces.Session),
		startingUp:     make(map[types.TeamID]bool),
		reconnects:     make(map[types.TeamID]*time.Timer),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Bus returns the domain event bus
func (uc *UseCases) Bus() *event.Bus {
	return uc.bus
}

// teamLock returns the per-team mutex serializing upsert-and-emit
func (uc *UseCases) teamLock(id types.TeamID) *sync.Mutex {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	lock, ok := uc.teamLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		uc.teamLocks[id] = lock
	}
	return lock
}

// setStartingUp toggles startup suppression for a team. While set, no
// add/change events are observable for that team's entities.
func (uc *UseCases) setStartingUp(id types.TeamID, on bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if on {
		uc.startingUp[id] = true
	} else {
		delete(uc.startingUp, id)
	}
}

// isStartingUp is checked at emission time, not dispatch time
func (uc *UseCases) isStartingUp(id types.TeamID) bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.startingUp[id]
}
