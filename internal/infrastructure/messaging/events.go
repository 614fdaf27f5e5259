package messaging

import "time"

const (
	ChatExchange       = "chat"
	DeadLetterExchange = "dlx"

	AuditQueue      = "chat_audit"
	DeadLetterQueue = "dead_letter_queue"
)

type PresenceEventData struct {
	UserID string    `json:"userId"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

type MessageEventData struct {
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	MessageID      string    `json:"messageId"`
	At             time.Time `json:"at"`
}
