package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crud_backend/internal/app/config"
	authentity "crud_backend/internal/feature/auth/domain/entity"
	platformdb "crud_backend/internal/platform/db"
	"crud_backend/internal/platform/viewscope"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type client struct {
	t      *testing.T
	router http.Handler
	token  string
	viewID string
}

func (cl *client) do(method, path string, body any) *httptest.ResponseRecorder {
	cl.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(cl.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	if cl.viewID != "" {
		req.Header.Set(viewscope.HeaderViewID, cl.viewID)
	}
	w := httptest.NewRecorder()
	cl.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (cl *client) login(login, password string) {
	cl.t.Helper()
	w := cl.do(http.MethodPost, "/login", gin.H{"login": login, "password": password})
	require.Equal(cl.t, http.StatusOK, w.Code, w.Body.String())
	cl.token = decode[struct {
		Token string `json:"token"`
	}](cl.t, w).Token
	require.NotEmpty(cl.t, cl.token)
}

func setupServer(t *testing.T) (*Server, *client) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	db, err := platformdb.OpenDB(platformdb.Config{
		Driver:  platformdb.DriverSQLite,
		Path:    filepath.Join(t.TempDir(), "crud.db"),
		Migrate: true,
	}, Models()...)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	srv, err := New(config.Config{
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		SessionTTL:      time.Hour,
		ViewIdleTimeout: time.Minute,
		LoginRateLimit:  100,
		StateCacheTTL:   time.Hour,
	}, db, nil, nil)
	require.NoError(t, err)

	cl := &client{t: t, router: srv.Router}
	for _, u := range []string{"ana", "bia"} {
		w := cl.do(http.MethodPost, "/signup", gin.H{"login": u, "password": "secret", "name": u})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	var ana authentity.User
	require.NoError(t, db.Where("login = ?", "ana").First(&ana).Error)
	require.NoError(t, db.Create(&authentity.Permission{UserID: ana.ID, Code: authentity.PermissionAdmin}).Error)
	return srv, cl
}

func TestServer_Health(t *testing.T) {
	_, cl := setupServer(t)

	w := cl.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, cl.do(http.MethodGet, "/me", nil).Code)
}

func TestServer_LocationScreens(t *testing.T) {
	_, admin := setupServer(t)
	admin.login("ana", "secret")

	w := admin.do(http.MethodPost, "/views", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	admin.viewID = decode[struct {
		ViewID string `json:"view_id"`
	}](t, w).ViewID

	w = admin.do(http.MethodPost, "/states", gin.H{"name": "Paraná", "code": " pr "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	state := decode[struct {
		ID   uint   `json:"id"`
		Code string `json:"code"`
	}](t, w)
	assert.Equal(t, "PR", state.Code)

	w = admin.do(http.MethodGet, "/states/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"PR"`)

	w = admin.do(http.MethodPost, "/cities", gin.H{"name": "Maringá", "state_id": state.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusUnprocessableEntity, admin.do(http.MethodPost, "/cities", gin.H{"name": "Nowhere", "state_id": 99}).Code)

	w = admin.do(http.MethodDelete, "/states/1", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "a state with cities cannot be removed")

	w = admin.do(http.MethodPost, "/states/search", gin.H{"column": "name", "mode": "contains", "value": "parana"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["total"])

	w = admin.do(http.MethodGet, "/states/1/cities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Maringá")
}

func TestServer_PermissionsAndMessages(t *testing.T) {
	_, ana := setupServer(t)
	ana.login("ana", "secret")
	bia := &client{t: t, router: ana.router}
	bia.login("bia", "secret")

	assert.Equal(t, http.StatusForbidden, bia.do(http.MethodPost, "/states", gin.H{"name": "Bahia", "code": "BA"}).Code)
	assert.Equal(t, http.StatusForbidden, bia.do(http.MethodGet, "/admin/sessions", nil).Code)
	assert.Equal(t, http.StatusOK, bia.do(http.MethodGet, "/states/options", nil).Code)

	me := decode[struct {
		ID uint `json:"id"`
	}](t, bia.do(http.MethodGet, "/me", nil))

	w := ana.do(http.MethodPost, "/messages", gin.H{"recipient_id": me.ID, "subject": "Hi", "body": "Welcome"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusUnprocessableEntity, bia.do(http.MethodPost, "/messages", gin.H{"recipient_id": me.ID, "subject": "Hi", "body": "me"}).Code)

	w = bia.do(http.MethodGet, "/messages/unread_count", nil)
	assert.JSONEq(t, `{"count":1}`, w.Body.String())
	assert.Equal(t, http.StatusOK, bia.do(http.MethodPost, "/messages/1/read", nil).Code)
	assert.Equal(t, http.StatusForbidden, ana.do(http.MethodPost, "/messages/1/read", nil).Code)
	assert.Equal(t, http.StatusNotFound, ana.do(http.MethodGet, "/messages/1", nil).Code, "only the recipient sees a message")

	w = ana.do(http.MethodGet, "/users/lookup?id="+jsonID(me.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":`+jsonID(me.ID)+`,"login":"bia","name":"bia"}`, w.Body.String())
}

func TestServer_InvalidateSession(t *testing.T) {
	_, ana := setupServer(t)
	ana.login("ana", "secret")
	bia := &client{t: t, router: ana.router}
	bia.login("bia", "secret")

	assert.Equal(t, http.StatusOK, ana.do(http.MethodPost, "/admin/users/bia/invalidar_session", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, bia.do(http.MethodGet, "/me", nil).Code)

	bia.login("bia", "secret")
	w := bia.do(http.MethodPost, "/login/invalidar_session", gin.H{"login": "bia", "password": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, bia.do(http.MethodGet, "/me", nil).Code)

	assert.Equal(t, http.StatusOK, ana.do(http.MethodPost, "/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ana.do(http.MethodGet, "/me", nil).Code)
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
