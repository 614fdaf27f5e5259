package repository

import (
	"context"

	"github.com/hilthontt/converse/internal/domain"
	"github.com/hilthontt/converse/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageRepository struct {
	db *mongo.Database
}

func NewMessageRepository(db *mongo.Database) domain.MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	collection := r.db.Collection(db.MessagesCollection)

	message.ID = primitive.NewObjectID().Hex()

	_, err := collection.InsertOne(ctx, message)
	return err
}

func (r *messageRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Message, error) {
	if len(ids) == 0 {
		return []domain.Message{}, nil
	}

	collection := r.db.Collection(db.MessagesCollection)

	filter := bson.M{"_id": bson.M{"$in": ids}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]domain.Message, 0, len(ids))
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}
