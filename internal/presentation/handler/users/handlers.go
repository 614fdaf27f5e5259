package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hilthontt/converse/internal/domain"
	"github.com/hilthontt/converse/internal/infrastructure/auth"
	"github.com/hilthontt/converse/internal/infrastructure/json"
	"github.com/hilthontt/converse/internal/presentation/utils"
	"go.uber.org/zap"
)

const minPasswordLength = 6

type Handler struct {
	userRepository domain.UserRepository
	jwtManager     *auth.JWTManager
	logger         *zap.SugaredLogger
}

func NewHandler(
	userRepository domain.UserRepository,
	jwtManager *auth.JWTManager,
	logger *zap.SugaredLogger,
) *Handler {
	return &Handler{
		userRepository: userRepository,
		jwtManager:     jwtManager,
		logger:         logger,
	}
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if len(req.Password) < minPasswordLength {
		json.WriteBadRequestError(w, "password must be at least 6 characters")
		return
	}
	if req.Password != req.ConfirmPassword {
		json.WriteBadRequestError(w, "passwords do not match")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	user, err := domain.NewUser(req.FullName, req.Username, hashed, req.Gender)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.userRepository.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			json.WriteError(w, http.StatusConflict, err, "Username is already taken")
		default:
			h.logger.Errorw("failed to create user", "username", user.Username, "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	token, expiresAt, err := h.jwtManager.GenerateToken(user.ID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	utils.SetSessionCookie(w, token, expiresAt)
	json.Write(w, http.StatusCreated, newUserResponse(user))
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	user, err := h.userRepository.GetByUsername(r.Context(), username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			// Identical response for unknown user and wrong password.
			json.WriteUnauthorizedError(w, "Invalid username or password")
		default:
			h.logger.Errorw("failed to look up user", "username", username, "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		json.WriteUnauthorizedError(w, "Invalid username or password")
		return
	}

	token, expiresAt, err := h.jwtManager.GenerateToken(user.ID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	utils.SetSessionCookie(w, token, expiresAt)
	json.Write(w, http.StatusOK, newUserResponse(user))
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	utils.ClearSessionCookie(w)
	json.Write(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// GetOthersHandler lists every user except the caller: the sidebar roster.
func (h *Handler) GetOthersHandler(w http.ResponseWriter, r *http.Request) {
	userID := utils.UserIDFromContext(r.Context())

	others, err := h.userRepository.ListOthers(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to list users", "error", err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, newUserResponses(others))
}

func (h *Handler) GetAllHandler(w http.ResponseWriter, r *http.Request) {
	all, err := h.userRepository.ListOthers(r.Context(), "")
	if err != nil {
		h.logger.Errorw("failed to list users", "error", err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, newUserResponses(all))
}

func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("username"))
	if prefix == "" {
		json.WriteBadRequestError(w, "username query parameter is required")
		return
	}

	matches, err := h.userRepository.SearchByUsername(r.Context(), strings.ToLower(prefix))
	if err != nil {
		h.logger.Errorw("failed to search users", "prefix", prefix, "error", err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, newUserResponses(matches))
}
