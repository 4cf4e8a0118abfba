package realtime

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Router orchestrates the connection lifecycle: it validates inbound
// commands against the join policy, mutates the registry, and forwards
// events through the fan-out. It is the only component allowed to mutate
// registry state.
//
// A connection is ACTIVE between Connect and Disconnect; commands arriving
// for an unknown (already closed) connection are dropped silently.
type Router struct {
	registry *Registry
	fanout   *Fanout
	hooks    Hooks
	log      *zerolog.Logger
}

// NewRouter wires the router over the registry and fan-out. Send failures
// observed during fan-out feed back into Disconnect, so a dead transport is
// reaped on first delivery attempt.
func NewRouter(registry *Registry, fanout *Fanout, hooks Hooks, logger *zerolog.Logger) *Router {
	if hooks == nil {
		hooks = NopHooks{}
	}
	rt := &Router{
		registry: registry,
		fanout:   fanout,
		hooks:    hooks,
		log:      logger,
	}
	fanout.onDead = rt.Disconnect
	return rt
}

// Connect registers an authenticated (or anonymous) connection. The
// registry auto-joins the user's private room for non-anonymous identities.
func (rt *Router) Connect(connID string, identity Identity, sender Sender) {
	rt.registry.Register(connID, identity, sender)
	rt.hooks.ConnectionOpened(identity.Role)
	rt.log.Info().
		Str("conn_id", connID).
		Str("user_id", displayUser(identity)).
		Msg("connection opened")
}

// Disconnect tears down a connection: the registry drops it from every
// room and from presence, and collaboration rooms it was in are notified.
// Safe to call twice; the second call is a no-op.
func (rt *Router) Disconnect(connID string) {
	identity, ok := rt.registry.Identity(connID)
	if !ok {
		return
	}
	vacated := rt.registry.Unregister(connID)
	for _, roomID := range vacated {
		if IsCollabRoom(roomID) {
			rt.fanout.ToRoom(roomID, EventUserDisconnected, RoomPresencePayload{
				UserID: displayUser(identity),
				RoomID: roomID,
			}, "")
		}
	}
	rt.hooks.ConnectionClosed(identity.Role)
	rt.log.Info().
		Str("conn_id", connID).
		Str("user_id", displayUser(identity)).
		Int("rooms", len(vacated)).
		Msg("connection closed")
}

// HandleCommand processes one inbound command for a connection. Commands
// for one connection must be handed over in receive order; calls for
// different connections may run concurrently. A fault while processing one
// command is isolated to that command.
func (rt *Router) HandleCommand(connID string, cmd Command) {
	defer func() {
		if rec := recover(); rec != nil {
			rt.log.Error().
				Interface("panic", rec).
				Str("conn_id", connID).
				Msg("recovered from fault while processing command")
		}
	}()

	identity, ok := rt.registry.Identity(connID)
	if !ok {
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		rt.handleJoin(connID, identity, cmd.Room)
	case CommandLeaveRoom:
		rt.handleLeave(connID, identity, cmd.Room)
	default:
		rt.handleDomainEvent(connID, identity, cmd)
	}
}

func (rt *Router) handleJoin(connID string, identity Identity, roomID string) {
	if !CanJoin(identity, roomID) {
		rt.sendError(connID, ErrCodeJoinDenied, "cannot join room: unauthorized")
		return
	}

	rt.registry.Join(connID, roomID)
	rt.hooks.RoomJoined(RoomType(roomID))
	rt.log.Debug().Str("conn_id", connID).Str("room", roomID).Msg("joined room")

	// The whole room is notified, joiner included, so the new member sees
	// the roster build up over the same channel as everyone else.
	if IsCollabRoom(roomID) {
		rt.fanout.ToRoom(roomID, EventUserJoined, RoomPresencePayload{
			UserID: displayUser(identity),
			RoomID: roomID,
		}, "")
	}
}

func (rt *Router) handleLeave(connID string, identity Identity, roomID string) {
	if rt.registry.Leave(connID, roomID) {
		rt.hooks.RoomLeft(RoomType(roomID))
	}
	rt.log.Debug().Str("conn_id", connID).Str("room", roomID).Msg("left room")

	if IsCollabRoom(roomID) {
		rt.fanout.ToRoom(roomID, EventUserLeft, RoomPresencePayload{
			UserID: displayUser(identity),
			RoomID: roomID,
		}, "")
	}
}

func (rt *Router) handleDomainEvent(connID string, identity Identity, cmd Command) {
	if identity.Anonymous() {
		rt.sendError(connID, ErrCodeAuthRequired, "authentication required")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)

	switch cmd.Kind {
	case CommandPlaylistTrackAdded:
		rt.relay(PlaylistRoom(cmd.PlaylistID), EventPlaylistTrackAdded, PlaylistTrackPayload{
			UserID:     identity.UserID,
			PlaylistID: cmd.PlaylistID,
			TrackID:    cmd.TrackID,
			Position:   cmd.Index,
		}, connID)

	case CommandPlaylistTrackRemoved:
		rt.relay(PlaylistRoom(cmd.PlaylistID), EventPlaylistTrackRemoved, PlaylistTrackPayload{
			UserID:     identity.UserID,
			PlaylistID: cmd.PlaylistID,
			TrackID:    cmd.TrackID,
		}, connID)

	case CommandPlaylistTrackReordered:
		rt.relay(PlaylistRoom(cmd.PlaylistID), EventPlaylistTrackReordered, PlaylistReorderPayload{
			UserID:     identity.UserID,
			PlaylistID: cmd.PlaylistID,
			Tracks:     cmd.Tracks,
		}, connID)

	case CommandTrackPlay:
		// Listen events go to the full room, sender included, so the
		// sender's UI confirms delivery from the server's ordering.
		rt.relay(TrackRoom(cmd.TrackID), EventTrackPlayed, TrackActivityPayload{
			TrackID:   cmd.TrackID,
			Timestamp: now,
			Position:  cmd.Position,
		}, "")

	case CommandTrackComplete:
		rt.relay(TrackRoom(cmd.TrackID), EventTrackCompleted, TrackActivityPayload{
			TrackID:   cmd.TrackID,
			Timestamp: now,
			Duration:  cmd.Duration,
		}, "")

	case CommandTaskProgress:
		rt.relay(TaskRoom(cmd.TaskID), EventAudioProcessingUpdate, TaskProgressPayload{
			TaskID:    cmd.TaskID,
			Progress:  cmd.Progress,
			Stage:     cmd.Stage,
			Timestamp: now,
		}, connID)

	case CommandChatMessage:
		text := strings.TrimSpace(cmd.Message)
		if text == "" {
			return
		}
		if !rt.registry.InRoom(connID, cmd.Room) {
			rt.sendError(connID, ErrCodeNotInRoom, "join the room before sending messages")
			return
		}
		rt.relay(cmd.Room, EventChatMessage, ChatMessagePayload{
			RoomID:    cmd.Room,
			UserID:    identity.UserID,
			Message:   text,
			Timestamp: now,
		}, "")

	case CommandTypingStart, CommandTypingStop:
		if !rt.registry.InRoom(connID, cmd.Room) {
			return
		}
		rt.relay(cmd.Room, EventTypingIndicator, TypingPayload{
			RoomID:   cmd.Room,
			UserID:   identity.UserID,
			IsTyping: cmd.Kind == CommandTypingStart,
		}, connID)

	default:
		rt.sendError(connID, ErrCodeBadRequest, "unknown command")
	}
}

func (rt *Router) relay(roomID, event string, payload any, exclude string) {
	rt.fanout.ToRoom(roomID, event, payload, exclude)
	rt.hooks.EventRelayed(event)
}

func (rt *Router) sendError(connID, code, msg string) {
	rt.fanout.ToConnection(connID, EventError, routeError(code, msg))
}

// SendToUser delivers an event to every connection of a user.
func (rt *Router) SendToUser(userID, event string, payload any) {
	rt.fanout.ToUser(userID, event, payload)
}

// NotifyUser delivers a notification payload to every connection of a user.
func (rt *Router) NotifyUser(userID string, payload any) {
	rt.fanout.ToUser(userID, EventNotification, payload)
}

// SendToRoom delivers an event to every member of a room.
func (rt *Router) SendToRoom(roomID, event string, payload any) {
	rt.fanout.ToRoom(roomID, event, payload, "")
}

// Broadcast delivers an event to every live connection.
func (rt *Router) Broadcast(event string, payload any) {
	rt.fanout.ToAll(event, payload)
}

// IsUserOnline reports whether the user has at least one live connection.
func (rt *Router) IsUserOnline(userID string) bool {
	return rt.registry.IsOnline(userID)
}

// ClientCount returns the number of live connections.
func (rt *Router) ClientCount() int { return rt.registry.ConnectionCount() }

// UserCount returns the number of distinct online users.
func (rt *Router) UserCount() int { return rt.registry.UserCount() }

// RoomCount returns the number of non-empty rooms.
func (rt *Router) RoomCount() int { return rt.registry.RoomCount() }

func displayUser(id Identity) string {
	if id.Anonymous() {
		return "anonymous"
	}
	return id.UserID
}
