package http

import (
	"encoding/json"

	"github.com/soundwave-fm/realtime-server/internal/proto"
	"github.com/soundwave-fm/realtime-server/internal/realtime"
)

// inboundToCommand decodes a wire envelope into a realtime command. Protocol
// errors (unknown type, missing required fields) come back as a non-fatal
// *realtime.Error for the sender; a decode failure is a transport error.
func inboundToCommand(inbound proto.Inbound) (*realtime.Command, *realtime.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom, proto.InboundTypeLeaveRoom:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" {
			return nil, badRequest("roomId is required"), nil
		}
		kind := realtime.CommandJoinRoom
		if inbound.Type == proto.InboundTypeLeaveRoom {
			kind = realtime.CommandLeaveRoom
		}
		return &realtime.Command{Kind: kind, Room: data.Room}, nil, nil

	case proto.InboundTypePlaylistTrackAdded, proto.InboundTypePlaylistTrackRemoved:
		var data proto.PlaylistTrackData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.PlaylistID == "" || data.TrackID == "" {
			return nil, badRequest("playlistId and trackId are required"), nil
		}
		kind := realtime.CommandPlaylistTrackAdded
		if inbound.Type == proto.InboundTypePlaylistTrackRemoved {
			kind = realtime.CommandPlaylistTrackRemoved
		}
		return &realtime.Command{
			Kind:       kind,
			PlaylistID: data.PlaylistID,
			TrackID:    data.TrackID,
			Index:      data.Position,
		}, nil, nil

	case proto.InboundTypePlaylistTrackReordered:
		var data proto.PlaylistReorderData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.PlaylistID == "" {
			return nil, badRequest("playlistId is required"), nil
		}
		return &realtime.Command{
			Kind:       realtime.CommandPlaylistTrackReordered,
			PlaylistID: data.PlaylistID,
			Tracks:     data.Tracks,
		}, nil, nil

	case proto.InboundTypeTrackPlay:
		var data proto.TrackPlayData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.TrackID == "" {
			return nil, badRequest("trackId is required"), nil
		}
		return &realtime.Command{
			Kind:     realtime.CommandTrackPlay,
			TrackID:  data.TrackID,
			Position: data.Position,
		}, nil, nil

	case proto.InboundTypeTrackComplete:
		var data proto.TrackCompleteData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.TrackID == "" {
			return nil, badRequest("trackId is required"), nil
		}
		return &realtime.Command{
			Kind:     realtime.CommandTrackComplete,
			TrackID:  data.TrackID,
			Duration: data.Duration,
		}, nil, nil

	case proto.InboundTypeTaskProgress:
		var data proto.TaskProgressData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.TaskID == "" {
			return nil, badRequest("taskId is required"), nil
		}
		return &realtime.Command{
			Kind:     realtime.CommandTaskProgress,
			TaskID:   data.TaskID,
			Progress: data.Progress,
			Stage:    data.Stage,
		}, nil, nil

	case proto.InboundTypeChatMessage:
		var data proto.ChatMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" {
			return nil, badRequest("roomId is required"), nil
		}
		return &realtime.Command{
			Kind:    realtime.CommandChatMessage,
			Room:    data.Room,
			Message: data.Message,
		}, nil, nil

	case proto.InboundTypeTypingStart, proto.InboundTypeTypingStop:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" {
			return nil, badRequest("roomId is required"), nil
		}
		kind := realtime.CommandTypingStart
		if inbound.Type == proto.InboundTypeTypingStop {
			kind = realtime.CommandTypingStop
		}
		return &realtime.Command{Kind: kind, Room: data.Room}, nil, nil

	default:
		return nil, &realtime.Error{Code: "invalid_message", Message: "unknown message type"}, nil
	}
}

func badRequest(msg string) *realtime.Error {
	return &realtime.Error{Code: realtime.ErrCodeBadRequest, Message: msg}
}
