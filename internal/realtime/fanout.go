package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Envelope is the cross-process form of a broadcast, relayed through the
// external pub/sub adapter so sibling instances deliver to their own
// connections. Exclusions never cross instances; the excluded connection
// only exists on the origin.
type Envelope struct {
	Origin  string          `json:"origin"`
	Scope   string          `json:"scope"`
	Target  string          `json:"target,omitempty"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Envelope scopes.
const (
	ScopeRoom = "room"
	ScopeUser = "user"
	ScopeAll  = "all"
)

// Bus is the external pub/sub adapter for multi-instance fan-out.
type Bus interface {
	Publish(ctx context.Context, env Envelope) error
}

type target struct {
	id     string
	sender Sender
}

// Fanout delivers a named event to a resolved set of connections. Member
// snapshots are taken under a brief registry read lock; the actual sends
// happen outside it. sendMu serializes delivery so that two broadcasts
// issued in sequence reach every shared recipient in that same order.
type Fanout struct {
	registry *Registry
	bus      Bus
	hooks    Hooks
	log      *zerolog.Logger

	sendMu sync.Mutex
	onDead func(connID string)
}

// NewFanout builds a fan-out over the registry. bus may be nil for
// single-instance deployments.
func NewFanout(registry *Registry, bus Bus, hooks Hooks, logger *zerolog.Logger) *Fanout {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Fanout{
		registry: registry,
		bus:      bus,
		hooks:    hooks,
		log:      logger,
		onDead:   func(string) {},
	}
}

// ToConnection sends to a single connection. Never relayed cross-process.
func (f *Fanout) ToConnection(connID, event string, payload any) {
	f.registry.mu.RLock()
	conn, ok := f.registry.conns[connID]
	f.registry.mu.RUnlock()
	if !ok {
		return
	}
	f.deliver([]target{{id: connID, sender: conn.sender}}, event, payload)
}

// ToRoom sends to every member of a room, optionally excluding one
// connection (typically the sender, to avoid echo).
func (f *Fanout) ToRoom(roomID, event string, payload any, exclude string) {
	f.deliver(f.roomTargets(roomID, exclude), event, payload)
	f.relay(ScopeRoom, roomID, event, payload)
}

// ToUser sends to every connection of a user.
func (f *Fanout) ToUser(userID, event string, payload any) {
	f.deliver(f.userTargets(userID), event, payload)
	f.relay(ScopeUser, userID, event, payload)
}

// ToAll sends to every live connection.
func (f *Fanout) ToAll(event string, payload any) {
	f.deliver(f.allTargets(), event, payload)
	f.relay(ScopeAll, "", event, payload)
}

// Deliver dispatches an envelope received from the bus to local connections
// only; it is never re-published, which would loop between instances.
func (f *Fanout) Deliver(env Envelope) {
	payload := json.RawMessage(env.Payload)
	switch env.Scope {
	case ScopeRoom:
		f.deliver(f.roomTargets(env.Target, ""), env.Event, payload)
	case ScopeUser:
		f.deliver(f.userTargets(env.Target), env.Event, payload)
	case ScopeAll:
		f.deliver(f.allTargets(), env.Event, payload)
	default:
		f.log.Warn().Str("scope", env.Scope).Msg("dropping bus envelope with unknown scope")
	}
}

func (f *Fanout) roomTargets(roomID, exclude string) []target {
	f.registry.mu.RLock()
	defer f.registry.mu.RUnlock()
	members := f.registry.rooms[roomID]
	targets := make([]target, 0, len(members))
	for connID := range members {
		if connID == exclude {
			continue
		}
		if conn := f.registry.conns[connID]; conn != nil {
			targets = append(targets, target{id: connID, sender: conn.sender})
		}
	}
	return targets
}

func (f *Fanout) userTargets(userID string) []target {
	f.registry.mu.RLock()
	defer f.registry.mu.RUnlock()
	set := f.registry.users[userID]
	targets := make([]target, 0, len(set))
	for connID := range set {
		if conn := f.registry.conns[connID]; conn != nil {
			targets = append(targets, target{id: connID, sender: conn.sender})
		}
	}
	return targets
}

func (f *Fanout) allTargets() []target {
	f.registry.mu.RLock()
	defer f.registry.mu.RUnlock()
	targets := make([]target, 0, len(f.registry.conns))
	for connID, conn := range f.registry.conns {
		targets = append(targets, target{id: connID, sender: conn.sender})
	}
	return targets
}

// deliver sends to each target, collecting connections whose transport is
// already gone. A dead connection must not abort delivery to the rest, so
// failures only feed the implicit-disconnect path once the loop is done.
func (f *Fanout) deliver(targets []target, event string, payload any) {
	var dead []string

	f.sendMu.Lock()
	for _, t := range targets {
		if err := t.sender.Send(event, payload); err != nil {
			f.hooks.DeliveryFault()
			f.log.Debug().Err(err).Str("conn_id", t.id).Str("event", event).
				Msg("send failed, scheduling disconnect")
			dead = append(dead, t.id)
		}
	}
	f.sendMu.Unlock()

	for _, connID := range dead {
		f.onDead(connID)
	}
}

func (f *Fanout) relay(scope, targetID, event string, payload any) {
	if f.bus == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		f.log.Warn().Err(err).Str("event", event).Msg("cannot marshal payload for bus")
		return
	}
	env := Envelope{Scope: scope, Target: targetID, Event: event, Payload: raw}
	if err := f.bus.Publish(context.Background(), env); err != nil {
		f.log.Warn().Err(err).Str("event", event).Msg("bus publish failed")
	}
}
