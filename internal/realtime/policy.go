package realtime

import "strings"

// Room identifier namespaces. A room is a plain string key of the form
// <type>:<scope>; it exists for as long as at least one connection is in it.
const (
	RoomPrefixPublic = "public:"
	RoomPrefixUser   = "user:"
	RoomPrefixTrack  = "track:"
	RoomPrefixCollab = "collab:playlist:"
	RoomPrefixTask   = "task:"
)

// UserRoom is the private room auto-joined by every authenticated connection.
func UserRoom(userID string) string { return RoomPrefixUser + userID }

// TrackRoom is the public listen room for a track.
func TrackRoom(trackID string) string { return RoomPrefixTrack + trackID }

// PlaylistRoom is the collaboration room for a playlist.
func PlaylistRoom(playlistID string) string { return RoomPrefixCollab + playlistID }

// TaskRoom is the progress room for a background task.
func TaskRoom(taskID string) string { return RoomPrefixTask + taskID }

// IsCollabRoom reports whether roomID is a collaboration room, which emits
// presence events (user-joined/user-left/user-disconnected) on membership
// changes.
func IsCollabRoom(roomID string) bool {
	return strings.HasPrefix(roomID, RoomPrefixCollab)
}

// RoomType returns the namespace prefix of a room identifier, used for
// metrics labels. The collab namespace spans two segments.
func RoomType(roomID string) string {
	if IsCollabRoom(roomID) {
		return "collab:playlist"
	}
	if i := strings.Index(roomID, ":"); i >= 0 {
		return roomID[:i]
	}
	return roomID
}

// CanJoin decides whether the caller may join a room. Pure function, safe
// for concurrent use. Unknown namespaces are denied.
func CanJoin(id Identity, roomID string) bool {
	switch {
	case strings.HasPrefix(roomID, RoomPrefixPublic):
		return true
	case strings.HasPrefix(roomID, RoomPrefixUser):
		// A user may only join their own private room.
		return !id.Anonymous() && strings.TrimPrefix(roomID, RoomPrefixUser) == id.UserID
	case strings.HasPrefix(roomID, RoomPrefixTrack):
		// Track listen rooms are public broadcast channels.
		return true
	case strings.HasPrefix(roomID, RoomPrefixCollab):
		// Any authenticated user; playlist ACLs belong to the application layer.
		return !id.Anonymous()
	case strings.HasPrefix(roomID, RoomPrefixTask):
		// Task ownership checks are deferred to the application layer.
		return !id.Anonymous()
	default:
		return false
	}
}
