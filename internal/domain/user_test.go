package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("Alice Smith", "Alice", "hashed-secret", GenderFemale)
	require.NoError(t, err)

	require.Equal(t, "Alice Smith", user.FullName)
	require.Equal(t, "alice", user.Username, "username is normalized to lowercase")
	require.Equal(t, "hashed-secret", user.Password)
	require.Equal(t, GenderFemale, user.Gender)
	require.Contains(t, user.ProfilePhoto, "girl")
	require.Contains(t, user.ProfilePhoto, "username=alice")
	require.False(t, user.CreatedAt.IsZero())
}

func TestNewUserMaleAvatar(t *testing.T) {
	user, err := NewUser("Bob Jones", "bob", "hash", GenderMale)
	require.NoError(t, err)
	require.Contains(t, user.ProfilePhoto, "boy")
}

func TestNewUserValidation(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		username string
		gender   string
	}{
		{"empty username", "Alice", "", GenderFemale},
		{"username too short", "Alice", "a", GenderFemale},
		{"username too long", "Alice", strings.Repeat("a", 33), GenderFemale},
		{"username with spaces", "Alice", "alice smith", GenderFemale},
		{"username with bad characters", "Alice", "alice!", GenderFemale},
		{"empty full name", "", "alice", GenderFemale},
		{"full name too long", strings.Repeat("a", 65), "alice", GenderFemale},
		{"empty gender", "Alice", "alice", ""},
		{"unknown gender", "Alice", "alice", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.fullName, tt.username, "hash", tt.gender)
			require.Error(t, err)
		})
	}
}
