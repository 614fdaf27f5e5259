package domain

import (
	"context"
	"time"
)

type Message struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	SenderID   string    `json:"senderId" bson:"sender_id"`
	ReceiverID string    `json:"receiverId" bson:"receiver_id"`
	Body       string    `json:"message" bson:"body"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	GetByIDs(ctx context.Context, ids []string) ([]Message, error)
}
