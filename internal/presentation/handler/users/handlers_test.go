package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hilthontt/converse/internal/domain"
	"github.com/hilthontt/converse/internal/infrastructure/auth"
	"github.com/hilthontt/converse/internal/presentation/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserRepository struct {
	byUsername map[string]*domain.User
	nextID     int
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{byUsername: make(map[string]*domain.User)}
}

func (f *fakeUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, ok := f.byUsername[user.Username]; ok {
		return domain.ErrUserAlreadyExists
	}
	f.nextID++
	user.ID = "user-" + string(rune('0'+f.nextID))
	f.byUsername[user.Username] = user
	return nil
}

func (f *fakeUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, user := range f.byUsername {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, ok := f.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepository) ListOthers(ctx context.Context, excludingID string) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.byUsername))
	for _, user := range f.byUsername {
		if user.ID == excludingID {
			continue
		}
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserRepository) SearchByUsername(ctx context.Context, prefix string) ([]domain.User, error) {
	out := make([]domain.User, 0)
	for username, user := range f.byUsername {
		if strings.HasPrefix(username, prefix) {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (f *fakeUserRepository) EnsureIndexes(ctx context.Context) error { return nil }

func newTestHandler() (*Handler, *fakeUserRepository) {
	repo := newFakeUserRepository()
	manager := auth.NewJWTManager("test-secret", time.Hour)
	return NewHandler(repo, manager, zap.NewNop().Sugar()), repo
}

func TestRegisterHandler(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"fullName":"Alice Smith","username":"alice","password":"hunter22","confirmPassword":"hunter22","gender":"female"}`
	r := httptest.NewRequest("POST", "/user/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.RegisterHandler(w, r)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "alice", resp.Username)
	require.NotEmpty(t, resp.ID)
	require.NotEmpty(t, resp.ProfilePhoto)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, utils.SessionCookieName, cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)
}

func TestRegisterHandlerPasswordMismatch(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"fullName":"Alice","username":"alice","password":"hunter22","confirmPassword":"other22","gender":"female"}`
	r := httptest.NewRequest("POST", "/user/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.RegisterHandler(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterHandlerDuplicateUsername(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"fullName":"Alice","username":"alice","password":"hunter22","confirmPassword":"hunter22","gender":"female"}`
	r := httptest.NewRequest("POST", "/user/register", strings.NewReader(body))
	h.RegisterHandler(httptest.NewRecorder(), r)

	r = httptest.NewRequest("POST", "/user/register", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.RegisterHandler(w, r)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginHandler(t *testing.T) {
	h, repo := newTestHandler()

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &domain.User{Username: "alice", Password: hash}))

	body := `{"username":"alice","password":"hunter22"}`
	r := httptest.NewRequest("POST", "/user/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.LoginHandler(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	h, repo := newTestHandler()

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &domain.User{Username: "alice", Password: hash}))

	body := `{"username":"alice","password":"wrong"}`
	r := httptest.NewRequest("POST", "/user/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.LoginHandler(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginHandlerUnknownUser(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"username":"ghost","password":"whatever"}`
	r := httptest.NewRequest("POST", "/user/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.LoginHandler(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutHandlerClearsCookie(t *testing.T) {
	h, _ := newTestHandler()

	r := httptest.NewRequest("GET", "/user/logout", nil)
	w := httptest.NewRecorder()

	h.LogoutHandler(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Empty(t, cookies[0].Value)
	require.True(t, cookies[0].Expires.Before(time.Now()))
}

func TestGetOthersHandlerExcludesCaller(t *testing.T) {
	h, repo := newTestHandler()

	require.NoError(t, repo.Create(context.Background(), &domain.User{Username: "alice"}))
	require.NoError(t, repo.Create(context.Background(), &domain.User{Username: "bob"}))
	alice, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/user", nil)
	r = r.WithContext(utils.WithUserID(r.Context(), alice.ID))
	w := httptest.NewRecorder()

	h.GetOthersHandler(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, "bob", resp[0].Username)
}

func TestSearchHandlerRequiresQuery(t *testing.T) {
	h, _ := newTestHandler()

	r := httptest.NewRequest("GET", "/user/search", nil)
	r = r.WithContext(utils.WithUserID(r.Context(), "user-1"))
	w := httptest.NewRecorder()

	h.SearchHandler(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
