package persistence

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestUnitOfWork_TransactionOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler gin.HandlerFunc
		expect  func(sqlmock.Sqlmock)
		status  int
		body    string
	}{
		{
			name:    "success commits",
			handler: func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
			expect:  func(m sqlmock.Sqlmock) { m.ExpectBegin(); m.ExpectCommit() },
			status:  http.StatusOK,
			body:    `{"ok":true}`,
		},
		{
			name:    "failed commit replaces the response",
			handler: func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{"saved": true}) },
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectCommit().WillReturnError(errors.New("deadlock detected"))
			},
			status: http.StatusInternalServerError,
			body:   `{"error":"internal server error"}`,
		},
		{
			name:    "error status rolls back",
			handler: func(c *gin.Context) { c.JSON(http.StatusConflict, gin.H{"error": "conflict"}) },
			expect:  func(m sqlmock.Sqlmock) { m.ExpectBegin(); m.ExpectRollback() },
			status:  http.StatusConflict,
		},
		{
			name: "recorded error rolls back",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("boom"))
				c.Status(http.StatusOK)
			},
			expect: func(m sqlmock.Sqlmock) { m.ExpectBegin(); m.ExpectRollback() },
			status: http.StatusOK,
		},
		{
			name:    "panic rolls back",
			handler: func(c *gin.Context) { panic("handler exploded") },
			expect:  func(m sqlmock.Sqlmock) { m.ExpectBegin(); m.ExpectRollback() },
			status:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db, mock := setupMockDB(t)
			tt.expect(mock)

			r := gin.New()
			r.Use(gin.Recovery(), UnitOfWork(db, nil, nil))
			r.GET("/", tt.handler)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUnitOfWork_CommitFailureUsesErrorFunc(t *testing.T) {
	t.Parallel()
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("deadlock detected"))

	var got error
	onErr := func(c *gin.Context, err error) {
		got = err
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "fatal", "redirect": "/error"})
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "https://app.example")
		c.Next()
	}, UnitOfWork(db, nil, onErr))
	r.GET("/report", func(c *gin.Context) {
		c.Header("Content-Disposition", `attachment; filename="x.pdf"`)
		c.Data(http.StatusOK, "application/pdf", []byte("%PDF"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/report", nil))

	require.Error(t, got)
	assert.Contains(t, got.Error(), "deadlock detected")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"fatal","redirect":"/error"}`, w.Body.String())
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_ResponseHeldUntilCommit(t *testing.T) {
	t.Parallel()
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r := gin.New()
	r.Use(UnitOfWork(db, nil, nil))
	r.POST("/x", func(c *gin.Context) {
		c.String(http.StatusCreated, "created")
		assert.Zero(t, w.Body.Len(), "nothing reaches the client before the commit")
		assert.Equal(t, http.StatusCreated, c.Writer.Status())
		assert.True(t, c.Writer.Written())
	})
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "created", w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_BeginFailure(t *testing.T) {
	t.Parallel()
	db, mock := setupMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	r := gin.New()
	r.Use(UnitOfWork(db, nil, nil))
	r.GET("/", func(c *gin.Context) { called = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_BindsTxAndActor(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	gw := NewGateway[testDoc](db, WithAudit("doc"))

	actor := func(c *gin.Context) (uint, bool) { return 42, true }

	r := gin.New()
	r.Use(UnitOfWork(db, actor, nil))
	r.POST("/ok", func(c *gin.Context) {
		ctx := c.Request.Context()
		_, bound := TxFromContext(ctx)
		id, _ := ActorFromContext(ctx)
		if !bound || id != 42 {
			c.Status(http.StatusTeapot)
			return
		}
		if err := gw.Save(ctx, &testDoc{Title: "kept"}); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusCreated)
	})
	r.POST("/fail", func(c *gin.Context) {
		_ = gw.Save(c.Request.Context(), &testDoc{Title: "discarded"})
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ok", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/fail", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	docs, err := gw.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "kept", docs[0].Title)

	revs, err := gw.Revisions(context.Background(), docs[0].ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	require.NotNil(t, revs[0].UserID)
	assert.Equal(t, uint(42), *revs[0].UserID)
}
