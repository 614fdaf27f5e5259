package repository

import (
	"context"
	"errors"

	"github.com/hilthontt/converse/internal/domain"
	"github.com/hilthontt/converse/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	db *mongo.Database
}

func NewUserRepository(db *mongo.Database) domain.UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	collection := r.db.Collection(db.UsersCollection)

	existing := collection.FindOne(ctx, bson.M{"username": user.Username})
	if err := existing.Err(); err == nil {
		return domain.ErrUserAlreadyExists
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	user.ID = primitive.NewObjectID().Hex()

	_, err := collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrUserAlreadyExists
	}

	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	collection := r.db.Collection(db.UsersCollection)

	var user domain.User
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	collection := r.db.Collection(db.UsersCollection)

	var user domain.User
	err := collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) ListOthers(ctx context.Context, excludingID string) ([]domain.User, error) {
	collection := r.db.Collection(db.UsersCollection)

	filter := bson.M{"_id": bson.M{"$ne": excludingID}}
	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]domain.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) SearchByUsername(ctx context.Context, prefix string) ([]domain.User, error) {
	collection := r.db.Collection(db.UsersCollection)

	filter := bson.M{"username": primitive.Regex{Pattern: "^" + escapeRegex(prefix), Options: "i"}}
	opts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetLimit(20)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]domain.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.UsersCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// escapeRegex neutralizes regex metacharacters so user input is matched
// literally.
func escapeRegex(s string) string {
	const meta = `\.+*?()|[]{}^$`

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(meta); j++ {
			if s[i] == meta[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, s[i])
	}

	return string(out)
}
