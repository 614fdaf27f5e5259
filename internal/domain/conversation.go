package domain

import "context"

// Conversation is the durable unordered pair of participants plus the ordered
// list of message ids exchanged between them. Append-only from the real-time
// layer's perspective.
type Conversation struct {
	ID           string   `json:"id" bson:"_id,omitempty"`
	Participants []string `json:"participants" bson:"participants"`
	MessageIDs   []string `json:"messageIds" bson:"message_ids"`
}

type ConversationRepository interface {
	FindOrCreate(ctx context.Context, userA, userB string) (*Conversation, error)
	Get(ctx context.Context, userA, userB string) (*Conversation, error)
	AppendMessage(ctx context.Context, conversationID, messageID string) error
}

// ConversationID derives the canonical room token for a two-party
// conversation. It is order-independent: both participants (and the browser
// client) compute the same value from the same unordered pair.
func ConversationID(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + "_" + userB
}
