package ws

import "encoding/json"

// WSMessage is the outbound envelope written to clients.
type WSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// InboundEvent is the envelope read from clients; Data is decoded per event.
type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Payload structs
type IdentityPayload struct {
	UserID string `json:"userId"`
}

type ConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type MessagePayload struct {
	SenderID       string `json:"senderId"`
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	MessageID      string `json:"messageId"`
	CreatedAt      string `json:"createdAt"`
}

type TypingPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type OnlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}

type TypingStatusPayload struct {
	ConversationID string   `json:"conversationId"`
	TypingUsers    []string `json:"typingUsers"`
}

func NewUserStatus(userID, status string) *WSMessage {
	return &WSMessage{
		Event: EventUserStatus,
		Data: UserStatusPayload{
			UserID: userID,
			Status: status,
		},
	}
}

func NewOnlineUsers(userIDs []string) *WSMessage {
	return &WSMessage{
		Event: EventOnlineUsers,
		Data:  OnlineUsersPayload{UserIDs: userIDs},
	}
}

func NewMessageEvent(payload MessagePayload) *WSMessage {
	return &WSMessage{
		Event: EventNewMessage,
		Data:  payload,
	}
}

func NewTypingStatus(conversationID string, typingUsers []string) *WSMessage {
	return &WSMessage{
		Event: EventTypingStatus,
		Data: TypingStatusPayload{
			ConversationID: conversationID,
			TypingUsers:    typingUsers,
		},
	}
}
