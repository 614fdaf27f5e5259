package messages

import (
	"time"

	"github.com/hilthontt/converse/internal/domain"
)

type sendMessageRequest struct {
	Message string `json:"message"`
}

// messageResponse mirrors the shape relayed over the socket so clients can
// reconcile the persisted copy with the real-time one by id.
type messageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}

func newMessageResponse(message *domain.Message, conversationID string) messageResponse {
	return messageResponse{
		ID:             message.ID,
		ConversationID: conversationID,
		SenderID:       message.SenderID,
		ReceiverID:     message.ReceiverID,
		Message:        message.Body,
		CreatedAt:      message.CreatedAt,
	}
}
