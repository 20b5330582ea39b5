package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"identity_admin/internal/domain"
	"identity_admin/internal/middleware"
	"identity_admin/internal/models"
	"identity_admin/internal/utils"
)

type fakeUserService struct {
	users   map[string]string
	created []models.User
}

func (f *fakeUserService) CreateUser(_ context.Context, username, password string, role models.UserRole) (*models.User, error) {
	if _, ok := f.users[username]; ok {
		return nil, domain.ConflictError{Resource: "User"}
	}
	f.users[username] = password
	user := models.User{Model: gorm.Model{ID: uint(len(f.users))}, Username: username, Role: role}
	f.created = append(f.created, user)
	return &user, nil
}

func (f *fakeUserService) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	if pw, ok := f.users[username]; !ok || pw != password {
		return nil, domain.UnauthorizedError{Msg: "invalid username or password"}
	}
	return &models.User{Model: gorm.Model{ID: 1}, Username: username, Role: models.RoleAdmin}, nil
}

func newAuthRouter(users *fakeUserService, tokens *utils.TokenManager) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(zap.NewNop()))
	h := NewAuthHandler(users, tokens)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/register", h.Register)
	return r
}

func TestLoginIssuesToken(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	users := &fakeUserService{users: map[string]string{"admin": "1q2w3E*"}}
	r := newAuthRouter(users, tokens)

	w := post(r, "/api/auth/login", `{"username":"admin","password":"1q2w3E*"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	claims, err := tokens.ParseToken(body.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, string(models.RoleAdmin), claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := &fakeUserService{users: map[string]string{"admin": "1q2w3E*"}}
	r := newAuthRouter(users, utils.NewTokenManager("secret", time.Hour))

	w := post(r, "/api/auth/login", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, "/api/auth/login", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDefaultsToViewer(t *testing.T) {
	users := &fakeUserService{users: map[string]string{}}
	r := newAuthRouter(users, utils.NewTokenManager("secret", time.Hour))

	w := post(r, "/api/auth/register", `{"username":"bob","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, users.created, 1)
	assert.Equal(t, models.RoleViewer, users.created[0].Role)

	w = post(r, "/api/auth/register", `{"username":"bob","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(r, "/api/auth/register", `{"username":"eve","password":"secret1","role":"root"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
