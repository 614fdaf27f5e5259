package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hilthontt/converse/internal/infrastructure/validate"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	FullName     string    `json:"fullName" bson:"full_name"`
	Username     string    `json:"username" bson:"username"`
	Password     string    `json:"-" bson:"password"`
	Gender       string    `json:"gender" bson:"gender"`
	ProfilePhoto string    `json:"profilePhoto" bson:"profile_photo"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ListOthers(ctx context.Context, excludingID string) ([]User, error)
	SearchByUsername(ctx context.Context, prefix string) ([]User, error)
	EnsureIndexes(ctx context.Context) error
}

// NewUser validates the registration input and builds a user with a generated
// avatar. The password is stored as given; hashing belongs to the auth layer.
func NewUser(fullName, username, hashedPassword, gender string) (*User, error) {
	validateUsername := validate.Field("username",
		validate.Required(),
		validate.MinLength(2),
		validate.MaxLength(32),
		validate.NoSpaces(),
		validate.Matches(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`,
			"username can only contain letters, numbers, underscores, and hyphens"),
	)
	validateFullName := validate.Field("fullName",
		validate.Required(),
		validate.MaxLength(64),
	)
	validateGender := validate.Field("gender",
		validate.Required(),
		validate.OneOf(GenderMale, GenderFemale),
	)

	username = strings.ToLower(strings.TrimSpace(username))
	fullName = strings.TrimSpace(fullName)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateFullName(fullName); err != nil {
		return nil, err
	}
	if err := validateGender(gender); err != nil {
		return nil, err
	}

	return &User{
		FullName:     fullName,
		Username:     username,
		Password:     hashedPassword,
		Gender:       gender,
		ProfilePhoto: avatarURL(username, gender),
		CreatedAt:    time.Now(),
	}, nil
}

func avatarURL(username, gender string) string {
	kind := "boy"
	if gender == GenderFemale {
		kind = "girl"
	}
	return fmt.Sprintf("https://avatar.iran.liara.run/public/%s?username=%s", kind, username)
}
