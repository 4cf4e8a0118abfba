package realtime

// Event names emitted to clients.
const (
	EventError            = "error"
	EventUserJoined       = "user-joined"
	EventUserLeft         = "user-left"
	EventUserDisconnected = "user-disconnected"
	EventNotification     = "notification"

	EventPlaylistTrackAdded     = "playlist-track-added"
	EventPlaylistTrackRemoved   = "playlist-track-removed"
	EventPlaylistTrackReordered = "playlist-track-reordered"
	EventTrackPlayed            = "track-played"
	EventTrackCompleted         = "track-completed"
	EventAudioProcessingUpdate  = "audio-processing-update"
	EventChatMessage            = "chat-message"
	EventTypingIndicator        = "typing-indicator"
)

// RoomPresencePayload accompanies user-joined/user-left/user-disconnected.
type RoomPresencePayload struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

// PlaylistTrackPayload accompanies playlist-track-added/-removed.
type PlaylistTrackPayload struct {
	UserID     string `json:"userId"`
	PlaylistID string `json:"playlistId"`
	TrackID    string `json:"trackId"`
	Position   int    `json:"position,omitempty"`
}

// PlaylistReorderPayload accompanies playlist-track-reordered. Tracks is
// relayed verbatim; its internal shape is owned by the clients.
type PlaylistReorderPayload struct {
	UserID     string `json:"userId"`
	PlaylistID string `json:"playlistId"`
	Tracks     any    `json:"tracks"`
}

// TrackActivityPayload accompanies track-played/track-completed.
type TrackActivityPayload struct {
	TrackID   string  `json:"trackId"`
	Timestamp string  `json:"timestamp"`
	Position  float64 `json:"position,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
}

// TaskProgressPayload accompanies audio-processing-update.
type TaskProgressPayload struct {
	TaskID    string `json:"taskId"`
	Progress  int    `json:"progress"`
	Stage     string `json:"stage"`
	Timestamp string `json:"timestamp"`
}

// ChatMessagePayload accompanies chat-message.
type ChatMessagePayload struct {
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// TypingPayload accompanies typing-indicator.
type TypingPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}
