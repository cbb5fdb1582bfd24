package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/feature/auth/usecase"
	jwtmw "crud_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockAuthUsecase is a mock implementation of AuthUsecase.
type mockAuthUsecase struct {
	SignupFunc            func(in usecase.SignupInput) (*entity.User, error)
	LoginFunc             func(in usecase.LoginInput) (*usecase.LoginResult, error)
	LogoutFunc            func(login, sessionID string) error
	InvalidateSessionFunc func(login string) error
	InvalidateCredsFunc   func(login, password string) error
	CurrentUserFunc       func(login string) (*entity.User, error)
	LookupFunc            func(id uint) (*entity.UserSummary, error)
}

func (m *mockAuthUsecase) Signup(_ context.Context, in usecase.SignupInput) (*entity.User, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(in)
	}
	return &entity.User{ID: 1, Login: in.Login, Name: in.Name}, nil
}

func (m *mockAuthUsecase) Login(_ context.Context, in usecase.LoginInput) (*usecase.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(in)
	}
	return nil, usecase.ErrInvalidCredentials
}

func (m *mockAuthUsecase) Logout(_ context.Context, login, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(login, sessionID)
	}
	return nil
}

func (m *mockAuthUsecase) InvalidateSession(_ context.Context, login string) error {
	if m.InvalidateSessionFunc != nil {
		return m.InvalidateSessionFunc(login)
	}
	return nil
}

func (m *mockAuthUsecase) InvalidateWithCredentials(_ context.Context, login, password string) error {
	if m.InvalidateCredsFunc != nil {
		return m.InvalidateCredsFunc(login, password)
	}
	return nil
}

func (m *mockAuthUsecase) CurrentUser(_ context.Context, login string) (*entity.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(login)
	}
	return nil, usecase.ErrUserNotFound
}

func (m *mockAuthUsecase) Lookup(_ context.Context, id uint) (*entity.UserSummary, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(id)
	}
	return nil, usecase.ErrUserNotFound
}

func (m *mockAuthUsecase) ActiveLogins() []string { return []string{"alex", "maria"} }

func (m *mockAuthUsecase) Permissions() []entity.PermissionInfo { return entity.Catalogue() }

// authenticated simulates jwtmw.AuthRequired for user 7 "alex".
func authenticated(c *gin.Context) {
	c.Set(jwtmw.ContextUserID, uint(7))
	c.Set(jwtmw.ContextLogin, "alex")
	c.Set(jwtmw.ContextSessionID, "sid-1")
	c.Next()
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) gin.H {
	t.Helper()
	var body gin.H
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthHandler_Signup(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    gin.H
		signup         func(in usecase.SignupInput) (*entity.User, error)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "success: user registration",
			requestBody:    gin.H{"login": "alex", "password": "alex", "name": "Alex"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "failure: invalid email address",
			requestBody:    gin.H{"login": "alex", "password": "alex", "email": "invalid-email"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "'email' tag",
		},
		{
			name:           "failure: short password",
			requestBody:    gin.H{"login": "alex", "password": "abc"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "'min' tag",
		},
		{
			name:           "failure: login taken",
			requestBody:    gin.H{"login": "alex", "password": "alex"},
			signup:         func(usecase.SignupInput) (*entity.User, error) { return nil, usecase.ErrLoginAlreadyExists },
			expectedStatus: http.StatusConflict,
			expectedError:  "signup failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthUsecase{SignupFunc: tt.signup})
			router := gin.New()
			router.POST("/signup", h.Signup)

			w := doJSON(router, http.MethodPost, "/signup", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decode(t, w)
			if tt.expectedError != "" {
				assert.Contains(t, body["error"], tt.expectedError)
			} else {
				assert.Equal(t, "alex", body["login"])
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		requestBody    gin.H
		login          func(in usecase.LoginInput) (*usecase.LoginResult, error)
		expectedStatus int
		check          func(t *testing.T, body gin.H)
	}{
		{
			name:        "success: user login",
			requestBody: gin.H{"login": "alex", "password": "alex"},
			login: func(in usecase.LoginInput) (*usecase.LoginResult, error) {
				return &usecase.LoginResult{
					Token: "jwt", ExpiresAt: expires,
					User: &entity.User{ID: 7, Login: in.Login, Name: "Alex"},
				}, nil
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body gin.H) {
				assert.Equal(t, "jwt", body["token"])
				assert.Equal(t, map[string]any{"id": float64(7), "login": "alex", "name": "Alex"}, body["user"])
			},
		},
		{
			name:           "failure: wrong password",
			requestBody:    gin.H{"login": "alex", "password": "nope"},
			expectedStatus: http.StatusUnauthorized,
			check: func(t *testing.T, body gin.H) {
				assert.Equal(t, "invalid login or password", body["error"])
			},
		},
		{
			name:        "failure: logged in elsewhere",
			requestBody: gin.H{"login": "alex", "password": "alex"},
			login: func(usecase.LoginInput) (*usecase.LoginResult, error) {
				return nil, usecase.ErrSessionActive
			},
			expectedStatus: http.StatusConflict,
			check: func(t *testing.T, body gin.H) {
				assert.Equal(t, InvalidatePath, body["invalidate"])
			},
		},
		{
			name:           "failure: missing password",
			requestBody:    gin.H{"login": "alex"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthUsecase{LoginFunc: tt.login})
			router := gin.New()
			router.POST("/login", h.Login)

			w := doJSON(router, http.MethodPost, "/login", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.check != nil {
				tt.check(t, decode(t, w))
			}
		})
	}
}

func TestAuthHandler_InvalidateSession(t *testing.T) {
	var invalidated []string
	uc := &mockAuthUsecase{
		InvalidateSessionFunc: func(login string) error {
			if login == "ghost" {
				return usecase.ErrUserNotFound
			}
			invalidated = append(invalidated, login)
			return nil
		},
		InvalidateCredsFunc: func(login, password string) error {
			if password != "alex" {
				return usecase.ErrInvalidCredentials
			}
			invalidated = append(invalidated, login)
			return nil
		},
	}
	h := NewAuthHandler(uc)
	router := gin.New()
	router.POST(InvalidatePath, h.InvalidateWithCredentials)
	router.POST("/invalidar_session", authenticated, h.InvalidateOwn)
	router.POST("/admin/users/:login/invalidar_session", authenticated, h.InvalidateUser)

	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, InvalidatePath, gin.H{"login": "alex", "password": "alex"}).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(router, http.MethodPost, InvalidatePath, gin.H{"login": "alex", "password": "x"}).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/invalidar_session", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/admin/users/maria/invalidar_session", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodPost, "/admin/users/ghost/invalidar_session", nil).Code)

	assert.Equal(t, []string{"alex", "alex", "maria"}, invalidated)
}

func TestAuthHandler_Logout(t *testing.T) {
	var gotLogin, gotSID string
	h := NewAuthHandler(&mockAuthUsecase{LogoutFunc: func(login, sid string) error {
		gotLogin, gotSID = login, sid
		return nil
	}})
	router := gin.New()
	router.POST("/logout", authenticated, h.Logout)

	w := doJSON(router, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alex", gotLogin)
	assert.Equal(t, "sid-1", gotSID)
}

func TestAuthHandler_Lookup(t *testing.T) {
	h := NewAuthHandler(&mockAuthUsecase{LookupFunc: func(id uint) (*entity.UserSummary, error) {
		if id == 7 {
			return &entity.UserSummary{ID: 7, Login: "alex", Name: "Alex"}, nil
		}
		return nil, usecase.ErrUserNotFound
	}})
	router := gin.New()
	router.GET("/users/lookup", authenticated, h.Lookup)

	tests := []struct {
		query      string
		wantStatus int
		wantBody   string
	}{
		{query: "?id=7", wantStatus: http.StatusOK, wantBody: `{"id":7,"login":"alex","name":"Alex"}`},
		{query: "?id=8", wantStatus: http.StatusNotFound},
		{query: "?id=abc", wantStatus: http.StatusBadRequest},
		{query: "", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doJSON(router, http.MethodGet, "/users/lookup"+tt.query, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestAuthHandler_MeSessionsPermissions(t *testing.T) {
	h := NewAuthHandler(&mockAuthUsecase{CurrentUserFunc: func(login string) (*entity.User, error) {
		return &entity.User{ID: 7, Login: login, Password: "secret-hash"}, nil
	}})
	router := gin.New()
	router.GET("/me", authenticated, h.Me)
	router.GET("/admin/sessions", authenticated, h.Sessions)
	router.GET("/permissions", authenticated, h.Permissions)

	w := doJSON(router, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash")
	assert.Equal(t, "alex", decode(t, w)["login"])

	w = doJSON(router, http.MethodGet, "/admin/sessions", nil)
	assert.JSONEq(t, `{"logins":["alex","maria"]}`, w.Body.String())

	w = doJSON(router, http.MethodGet, "/permissions", nil)
	var perms []entity.PermissionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &perms))
	assert.Len(t, perms, len(entity.Catalogue()))
}

func TestAuthHandler_UnexpectedErrorIsClassified(t *testing.T) {
	h := NewAuthHandler(&mockAuthUsecase{CurrentUserFunc: func(string) (*entity.User, error) {
		return nil, errors.New("db down")
	}})
	router := gin.New()
	router.GET("/me", authenticated, h.Me)

	w := doJSON(router, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, decode(t, w)["redirect"])
}
