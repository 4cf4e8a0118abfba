package realtime

// CommandKind is the closed set of inbound message kinds. Wire type strings
// are decoded once at the transport boundary, so router dispatch is an
// exhaustive switch instead of string matching.
type CommandKind int

const (
	// CommandJoinRoom subscribes the connection to a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unsubscribes the connection from a room.
	CommandLeaveRoom
	// CommandPlaylistTrackAdded relays a collaborative playlist addition.
	CommandPlaylistTrackAdded
	// CommandPlaylistTrackRemoved relays a collaborative playlist removal.
	CommandPlaylistTrackRemoved
	// CommandPlaylistTrackReordered relays a collaborative playlist reorder.
	CommandPlaylistTrackReordered
	// CommandTrackPlay announces playback start to the track's listen room.
	CommandTrackPlay
	// CommandTrackComplete announces playback completion to the track's listen room.
	CommandTrackComplete
	// CommandTaskProgress relays processing progress to a task room.
	CommandTaskProgress
	// CommandChatMessage delivers a chat message to room participants.
	CommandChatMessage
	// CommandTypingStart signals the sender started typing in a room.
	CommandTypingStart
	// CommandTypingStop signals the sender stopped typing in a room.
	CommandTypingStop
)

// Command represents an action requested by a connection. Only the fields
// relevant to Kind are set.
type Command struct {
	Kind CommandKind

	Room       string
	PlaylistID string
	TrackID    string
	TaskID     string

	Index    int     // playlist insert position
	Position float64 // playback position, seconds
	Duration float64 // playback duration, seconds
	Progress int
	Stage    string
	Message  string
	Tracks   any // reordered track list, relayed verbatim
}
