package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound message types. Each maps to exactly one realtime.CommandKind at
// the transport boundary.
const (
	InboundTypeJoinRoom               = "join-room"
	InboundTypeLeaveRoom              = "leave-room"
	InboundTypePlaylistTrackAdded     = "playlist-track-added"
	InboundTypePlaylistTrackRemoved   = "playlist-track-removed"
	InboundTypePlaylistTrackReordered = "playlist-track-reordered"
	InboundTypeTrackPlay              = "track-play"
	InboundTypeTrackComplete          = "track-complete"
	InboundTypeTaskProgress           = "audio-processing-update"
	InboundTypeChatMessage            = "chat-message"
	InboundTypeTypingStart            = "typing-start"
	InboundTypeTypingStop             = "typing-stop"
)

// RoomData targets a room by id (join-room, leave-room, typing-*).
type RoomData struct {
	Room string `json:"roomId"`
}

// PlaylistTrackData accompanies playlist-track-added/-removed.
type PlaylistTrackData struct {
	PlaylistID string `json:"playlistId"`
	TrackID    string `json:"trackId"`
	Position   int    `json:"position,omitempty"`
}

// PlaylistReorderData accompanies playlist-track-reordered. The track list
// shape is owned by the clients and relayed verbatim.
type PlaylistReorderData struct {
	PlaylistID string          `json:"playlistId"`
	Tracks     json.RawMessage `json:"tracks"`
}

// TrackPlayData accompanies track-play.
type TrackPlayData struct {
	TrackID  string  `json:"trackId"`
	Position float64 `json:"position,omitempty"`
}

// TrackCompleteData accompanies track-complete.
type TrackCompleteData struct {
	TrackID  string  `json:"trackId"`
	Duration float64 `json:"duration,omitempty"`
}

// TaskProgressData accompanies audio-processing-update.
type TaskProgressData struct {
	TaskID   string `json:"taskId"`
	Progress int    `json:"progress"`
	Stage    string `json:"stage"`
}

// ChatMessageData accompanies chat-message.
type ChatMessageData struct {
	Room    string `json:"roomId"`
	Message string `json:"message"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}
