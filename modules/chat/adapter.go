package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/aman-wadhwa/FocusSphere/domain/study"
)

// HistoryPort defines the chat history interface for other modules.
type HistoryPort interface {
	GetHistory(ctx context.Context, roomID string, limit int) ([]study.ChatMessage, error)
}

// HistoryAdapter implements HistoryPort using the service container.
type HistoryAdapter struct {
	container mono.ServiceContainer
}

// NewHistoryAdapter creates a new HistoryAdapter.
func NewHistoryAdapter(container mono.ServiceContainer) HistoryPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &HistoryAdapter{container: container}
}

// GetHistory returns the last limit messages of a room, oldest first.
func (a *HistoryAdapter) GetHistory(ctx context.Context, roomID string, limit int) ([]study.ChatMessage, error) {
	req := GetHistoryRequest{RoomID: roomID, Limit: limit}
	var resp GetHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"chat-history",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	return resp.Messages, nil
}
