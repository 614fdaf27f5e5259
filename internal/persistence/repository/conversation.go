package repository

import (
	"context"
	"errors"

	"github.com/hilthontt/converse/internal/domain"
	"github.com/hilthontt/converse/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type conversationRepository struct {
	db *mongo.Database
}

func NewConversationRepository(db *mongo.Database) domain.ConversationRepository {
	return &conversationRepository{
		db: db,
	}
}

// FindOrCreate upserts the conversation for an unordered participant pair.
// The canonical pair id doubles as the document id, so concurrent first
// messages between the same two users converge on one document.
func (r *conversationRepository) FindOrCreate(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	collection := r.db.Collection(db.ConversationsCollection)

	id := domain.ConversationID(userA, userB)

	filter := bson.M{"_id": id}
	update := bson.M{
		"$setOnInsert": bson.M{
			"participants": []string{userA, userB},
			"message_ids":  []string{},
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var conversation domain.Conversation
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conversation)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *conversationRepository) AppendMessage(ctx context.Context, conversationID, messageID string) error {
	collection := r.db.Collection(db.ConversationsCollection)

	filter := bson.M{"_id": conversationID}
	update := bson.M{"$push": bson.M{"message_ids": messageID}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrConversationNotFound
	}

	return nil
}

// Get returns the conversation for a participant pair, or
// domain.ErrConversationNotFound when the two users never exchanged messages.
func (r *conversationRepository) Get(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	collection := r.db.Collection(db.ConversationsCollection)

	var conversation domain.Conversation
	err := collection.FindOne(ctx, bson.M{"_id": domain.ConversationID(userA, userB)}).Decode(&conversation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}
