package users

import "github.com/hilthontt/converse/internal/domain"

type registerRequest struct {
	FullName        string `json:"fullName"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Gender          string `json:"gender"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// userResponse is the public view of a user; the password hash never leaves
// the persistence layer.
type userResponse struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Username     string `json:"username"`
	Gender       string `json:"gender"`
	ProfilePhoto string `json:"profilePhoto"`
}

func newUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:           user.ID,
		FullName:     user.FullName,
		Username:     user.Username,
		Gender:       user.Gender,
		ProfilePhoto: user.ProfilePhoto,
	}
}

func newUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, newUserResponse(&users[i]))
	}
	return out
}
