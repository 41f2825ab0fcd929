package chat

import "github.com/aman-wadhwa/FocusSphere/domain/study"

// GetHistoryRequest asks for the last messages of a room.
type GetHistoryRequest struct {
	RoomID string `json:"room_id"`
	Limit  int    `json:"limit"`
}

// GetHistoryResponse carries the retained messages, oldest first.
type GetHistoryResponse struct {
	Messages []study.ChatMessage `json:"messages"`
}
