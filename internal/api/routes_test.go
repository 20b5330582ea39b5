package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"identity_admin/internal/models"
	"identity_admin/internal/repository"
	"identity_admin/internal/service"
	"identity_admin/internal/storage"
	"identity_admin/pkg/config"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestServer(t *testing.T, pinger Pinger) (*gin.Engine, *service.Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.New(config.DBConfig{Driver: storage.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ApiResource{},
		&models.ApiResourceSecret{},
		&models.ApiResourceScope{},
		&models.ApiResourceClaim{},
		&models.ApiResourceProperty{},
	))

	services := service.NewServices(repository.NewRepositories(db), zap.NewNop())
	require.NoError(t, services.User.EnsureAdmin(context.Background(), "admin", "1q2w3E*"))

	if pinger == nil {
		pinger = db
	}
	r := gin.New()
	SetupRoutes(r, testConfig(), services, pinger, zap.NewNop())
	return r, services
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	return loginAs(t, r, "admin", "1q2w3E*")
}

func loginAs(t *testing.T, r http.Handler, username, password string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/auth/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t, nil)
	w := do(r, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	r, _ = newTestServer(t, failingPinger{})
	w = do(r, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestServer(t, nil)
	w := do(r, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApiResourceRoutesRequireToken(t *testing.T) {
	r, _ := newTestServer(t, nil)
	for _, path := range []string{"page", "all", "create", "delete", "update"} {
		w := do(r, http.MethodPost, "/IdentityServer/ApiResource/"+path, "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestApiResourceLifecycle(t *testing.T) {
	r, _ := newTestServer(t, nil)
	token := login(t, r)
	const prefix = "/IdentityServer/ApiResource"

	w := do(r, http.MethodPost, prefix+"/create", token, `{"name":"api1","displayName":"API One","scopes":["api1.read"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, w.Body.String())

	w = do(r, http.MethodPost, prefix+"/create", token, `{"name":"api1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, prefix+"/page", token, `{"pageIndex":1,"pageSize":10,"filter":"API"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var page service.PagedResult[service.ApiResourceOutput]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.EqualValues(t, 1, page.TotalCount)
	require.Len(t, page.Items, 1)
	created := page.Items[0]
	assert.Equal(t, "API One", created.DisplayName)
	assert.Equal(t, []string{"api1.read"}, created.Scopes)

	w = do(r, http.MethodPost, prefix+"/update", token,
		`{"id":"`+created.ID.String()+`","name":"api1","displayName":"API Uno","enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, prefix+"/all", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []service.ApiResourceOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "API Uno", all[0].DisplayName)
	assert.False(t, all[0].Enabled)
	assert.Empty(t, all[0].Scopes)

	w = do(r, http.MethodPost, prefix+"/delete", token, `{"id":"`+created.ID.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, prefix+"/delete", token, `{"id":"`+created.ID.String()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, prefix+"/all", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRegisterRequiresToken(t *testing.T) {
	r, _ := newTestServer(t, nil)

	w := do(r, http.MethodPost, "/api/auth/register", "", `{"username":"bob","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, r)
	w = do(r, http.MethodPost, "/api/auth/register", token, `{"username":"bob","password":"secret1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestViewerCannotModifyApiResources(t *testing.T) {
	r, _ := newTestServer(t, nil)
	adminToken := login(t, r)

	w := do(r, http.MethodPost, "/api/auth/register", adminToken, `{"username":"bob","password":"secret1","role":"viewer"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	viewerToken := loginAs(t, r, "bob", "secret1")

	const prefix = "/IdentityServer/ApiResource"
	w = do(r, http.MethodPost, prefix+"/page", viewerToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, prefix+"/all", viewerToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{"create", "delete", "update"} {
		w = do(r, http.MethodPost, prefix+"/"+path, viewerToken, `{"name":"api1"}`)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}

	w = do(r, http.MethodPost, "/api/auth/register", viewerToken, `{"username":"eve","password":"secret1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
