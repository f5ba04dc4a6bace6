package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	appctx "shopledger/internal/core/context"
	"shopledger/internal/infrastructure/storage/postgres"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.Use(mw...)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestErrorHandler_AppError(t *testing.T) {
	r := newEngine()
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(apperror.NewInsufficientStock("p-1", 5, 2))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, apperror.CodeInsufficientStock, body.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	r := newEngine()
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection refused to 10.0.0.5"))
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	body := decodeError(t, rec)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.Equal(t, "req-42", body.Details["request_id"])
}

func TestRecovery(t *testing.T) {
	r := newEngine()
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
	assert.Equal(t, apperror.CodeInternal, decodeError(t, rec).Code)
}

type stubValidator map[string]*appctx.UserContext

func (v stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := v[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

func TestAuth(t *testing.T) {
	validator := stubValidator{
		"admin-token": {UserID: "u-1", Role: appctx.RoleAdmin},
		"user-token":  {UserID: "u-2", Role: appctx.RoleUser},
	}
	r := newEngine(Auth(validator))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetUserID(c.Request.Context()))
	})
	r.GET("/admin", RequireRole(appctx.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		cookie string
		status int
		body   string
	}{
		{name: "bearer header", path: "/me", header: "Bearer admin-token", status: http.StatusOK, body: "u-1"},
		{name: "cookie", path: "/me", cookie: "user-token", status: http.StatusOK, body: "u-2"},
		{name: "missing", path: "/me", status: http.StatusUnauthorized},
		{name: "malformed header", path: "/me", header: "Token abc", status: http.StatusUnauthorized},
		{name: "invalid token", path: "/me", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "admin route as admin", path: "/admin", header: "Bearer admin-token", status: http.StatusNoContent},
		{name: "admin route as user", path: "/admin", cookie: "user-token", status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

// memoryIdempotency mirrors the replay rules of the postgres store.
type memoryIdempotency struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	hash   string
	done   bool
	replay postgres.IdempotencyReplay
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{entries: map[string]*memoryEntry{}}
}

func (m *memoryIdempotency) AcquireKey(_ context.Context, key, _, _, hash string) (*postgres.IdempotencyReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		m.entries[key] = &memoryEntry{hash: hash}
		return nil, nil
	}
	if e.hash != hash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if !e.done {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	replay := e.replay
	return &replay, nil
}

func (m *memoryIdempotency) finish(key string, status int, ct string, response any) error {
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[key]
	e.done = true
	e.replay = postgres.IdempotencyReplay{StatusCode: status, ContentType: ct, Body: body}
	return nil
}

func (m *memoryIdempotency) CompleteKey(_ context.Context, key string, status int, ct string, response any) error {
	return m.finish(key, status, ct, response)
}

func (m *memoryIdempotency) FailKey(_ context.Context, key string, status int, ct string, response any) error {
	return m.finish(key, status, ct, response)
}

func (m *memoryIdempotency) ReleaseKey(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func TestIdempotency(t *testing.T) {
	store := newMemoryIdempotency()
	calls := 0
	r := newEngine(Idempotency(store))
	r.POST("/sales", func(c *gin.Context) {
		calls++
		resp := gin.H{"invoice": calls}
		require.NoError(t, CompleteIdempotency(c, http.StatusCreated, resp))
		c.JSON(http.StatusCreated, resp)
	})
	r.POST("/fail", func(c *gin.Context) {
		calls++
		_ = c.Error(errors.New("db down"))
	})

	post := func(path, key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	first := post("/sales", "k-1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, first.Code)

	replayed := post("/sales", "k-1", `{"a":1}`)
	assert.Equal(t, http.StatusCreated, replayed.Code)
	assert.JSONEq(t, first.Body.String(), replayed.Body.String())
	assert.Equal(t, "true", replayed.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, calls)

	mismatch := post("/sales", "k-1", `{"a":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, mismatch.Code)
	assert.Equal(t, 1, calls)

	post("/sales", "", `{"a":1}`)
	assert.Equal(t, 2, calls)

	// server errors free the key so a retry runs again
	assert.Equal(t, http.StatusInternalServerError, post("/fail", "k-2", `{}`).Code)
	assert.Equal(t, http.StatusInternalServerError, post("/fail", "k-2", `{}`).Code)
	assert.Equal(t, 4, calls)
}

type recordingObserver struct {
	route  string
	status int
}

func (o *recordingObserver) ObserveHTTP(_, route string, status int, _ time.Duration) {
	o.route = route
	o.status = status
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(obs), ErrorHandler())
	r.GET("/sales/:id", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("sale", c.Param("id")))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/abc", nil))

	assert.Equal(t, "/sales/:id", obs.route)
	assert.Equal(t, http.StatusNotFound, obs.status)
}
