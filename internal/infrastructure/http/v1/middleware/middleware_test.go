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

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/infrastructure/storage/postgres"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func withIdentity(role security.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := &appctx.Identity{UserID: id.New(), OrganisationID: orgID, Role: role}
		c.Request = c.Request.WithContext(appctx.WithIdentity(c.Request.Context(), ident))
		c.Next()
	}
}

var orgID = id.New()

type resolverFunc func(ctx context.Context, cred auth.Credential) (*appctx.Identity, error)

func (f resolverFunc) Resolve(ctx context.Context, cred auth.Credential) (*appctx.Identity, error) {
	return f(ctx, cred)
}

func TestNewErrorResponse(t *testing.T) {
	status, body := NewErrorResponse(errors.New("pq: relation \"employees\" does not exist"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, ErrorResponse{Error: "Internal server error", Code: apperror.CodeInternal}, body)

	status, body = NewErrorResponse(apperror.NewInternal(errors.New("secret detail")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body.Error)

	status, body = NewErrorResponse(apperror.NewNotFound("Employee", "x"))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperror.CodeNotFound, body.Code)
	assert.Empty(t, body.Details)

	status, body = NewErrorResponse(apperror.NewFieldValidation(apperror.FieldError{Field: "firstName", Message: "is required"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []apperror.FieldError{{Field: "firstName", Message: "is required"}}, body.Details)
}

func TestErrorHandler_DoesNotLeakCause(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Equal(t, apperror.CodeInternal, decodeBody(t, w).Code)
}

func TestRecovery_AnswersGeneric500(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/panic", func(c *gin.Context) {
		panic("nil map write in payroll")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "payroll")
	assert.Equal(t, ErrorResponse{Error: "Internal server error", Code: apperror.CodeInternal}, decodeBody(t, w))
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name   string
		role   security.Role
		anon   bool
		action security.Action
		want   int
	}{
		{name: "anonymous", anon: true, action: security.EmployeeRead, want: http.StatusUnauthorized},
		{name: "employee reads roster", role: security.RoleEmployee, action: security.EmployeeRead, want: http.StatusOK},
		{name: "employee creates employee", role: security.RoleEmployee, action: security.EmployeeCreate, want: http.StatusForbidden},
		{name: "manager approves leave", role: security.RoleManager, action: security.LeaveApprove, want: http.StatusOK},
		{name: "manager deletes leave", role: security.RoleManager, action: security.LeaveDelete, want: http.StatusForbidden},
		{name: "owner renames organisation", role: security.RoleOwner, action: security.OrganisationUpdate, want: http.StatusOK},
		{name: "admin renames organisation", role: security.RoleAdmin, action: security.OrganisationUpdate, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			r := gin.New()
			r.Use(ErrorHandler())
			if !tt.anon {
				r.Use(withIdentity(tt.role))
			}
			r.GET("/x", RequirePermission(tt.action), func(c *gin.Context) {
				reached = true
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.want == http.StatusOK, reached)
		})
	}
}

func TestAuth_CredentialHandling(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, cred auth.Credential) (*appctx.Identity, error) {
		if cred.BearerToken == "good" || cred.SessionToken == "good" {
			return &appctx.Identity{UserID: id.New(), OrganisationID: orgID, Role: security.RoleAdmin}, nil
		}
		return nil, apperror.NewUnauthorized("Invalid or expired session")
	})

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/me", Auth(resolver), func(c *gin.Context) {
		ident := appctx.GetIdentity(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"org": ident.OrganisationID.String()})
	})

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{name: "none", want: http.StatusUnauthorized},
		{name: "malformed header", header: "Token good", want: http.StatusUnauthorized},
		{name: "bad bearer", header: "Bearer bad", want: http.StatusUnauthorized},
		{name: "good bearer", header: "Bearer good", want: http.StatusOK},
		{name: "good cookie", cookie: "good", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, apperror.CodeUnauthorized, decodeBody(t, w).Code)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, cred auth.Credential) (*appctx.Identity, error) {
		if cred.BearerToken == "good" {
			return &appctx.Identity{UserID: id.New(), OrganisationID: orgID, Role: security.RoleManager}, nil
		}
		return nil, apperror.NewUnauthorized("Invalid or expired session")
	})

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/info", OptionalAuth(resolver), func(c *gin.Context) {
		org := ""
		if ident := appctx.GetIdentity(c.Request.Context()); ident != nil {
			org = ident.OrganisationID.String()
		}
		c.JSON(http.StatusOK, gin.H{"org": org})
	})

	tests := []struct {
		name    string
		header  string
		wantOrg string
	}{
		{name: "no credential", wantOrg: ""},
		{name: "malformed header", header: "Token good", wantOrg: ""},
		{name: "invalid credential", header: "Bearer bad", wantOrg: ""},
		{name: "valid credential", header: "Bearer good", wantOrg: orgID.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/info", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var body struct {
				Org string `json:"org"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantOrg, body.Org)
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "buckets are per IP")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestRateLimit_Envelope(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/login", RateLimit(NewIPRateLimiter(1)), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	assert.Equal(t, http.StatusOK, do().Code)
	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, apperror.CodeRateLimited, decodeBody(t, w).Code)
}

type storedResponse struct {
	status int
	body   []byte
	failed bool
}

type fakeIdempotencyStore struct {
	mu       sync.Mutex
	hashes   map[postgres.IdempotencyKey]string
	finished map[postgres.IdempotencyKey]storedResponse
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{
		hashes:   map[postgres.IdempotencyKey]string{},
		finished: map[postgres.IdempotencyKey]storedResponse{},
	}
}

func (s *fakeIdempotencyStore) AcquireKey(_ context.Context, req postgres.IdempotencyRequest) (*postgres.IdempotencyReplay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, seen := s.hashes[req.IdempotencyKey]
	if !seen {
		s.hashes[req.IdempotencyKey] = req.RequestHash
		return nil, nil
	}
	if hash != req.RequestHash {
		return nil, apperror.NewIdempotencyConflict("Idempotency key reused with a different request")
	}
	done, ok := s.finished[req.IdempotencyKey]
	if !ok {
		return nil, apperror.NewIdempotencyConflict("Request with this idempotency key is in progress")
	}
	if done.failed {
		s.hashes[req.IdempotencyKey] = req.RequestHash
		delete(s.finished, req.IdempotencyKey)
		return nil, nil
	}
	return &postgres.IdempotencyReplay{StatusCode: done.status, ContentType: "application/json; charset=utf-8", Body: done.body}, nil
}

func (s *fakeIdempotencyStore) CompleteKey(_ context.Context, key postgres.IdempotencyKey, status int, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished[key] = storedResponse{status: status, body: append([]byte(nil), body...)}
	return nil
}

func (s *fakeIdempotencyStore) FailKey(_ context.Context, key postgres.IdempotencyKey, status int, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished[key] = storedResponse{status: status, body: append([]byte(nil), body...), failed: true}
	return nil
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	r := gin.New()
	r.Use(ErrorHandler(), withIdentity(security.RoleAdmin), Idempotency(store))
	r.POST("/employees", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"n": calls})
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(body))
		req.Header.Set(HeaderIdempotencyKey, "key-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := post(`{"firstName":"Jan"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := post(`{"firstName":"Jan"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	conflict := post(`{"firstName":"Anna"}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_FailedRequestMayRetry(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	r := gin.New()
	r.Use(ErrorHandler(), withIdentity(security.RoleAdmin), Idempotency(store))
	r.POST("/employees", func(c *gin.Context) {
		calls++
		if calls == 1 {
			_ = c.Error(apperror.NewFieldValidation(apperror.FieldError{Field: "lastName", Message: "is required"}))
			c.Abort()
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(`{}`))
		req.Header.Set(HeaderIdempotencyKey, "key-2")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, post().Code)
	key := postgres.IdempotencyKey{OrganisationID: orgID, Key: "key-2"}
	assert.True(t, store.finished[key].failed)

	assert.Equal(t, http.StatusCreated, post().Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_SkipsWithoutKey(t *testing.T) {
	store := newFakeIdempotencyStore()
	r := gin.New()
	r.Use(ErrorHandler(), withIdentity(security.RoleAdmin), Idempotency(store))
	r.POST("/employees", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, store.hashes)
}
