package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/fixit/internal/kv"
	"github.com/hitoshi/fixit/internal/model"
)

// mockAuthenticator はAuthenticatorのモック。
type mockAuthenticator struct {
	authenticateFunc func(ctx context.Context, token string) (*model.Identity, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	return m.authenticateFunc(ctx, token)
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()

	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestSessionMiddleware_ValidToken(t *testing.T) {
	authenticator := &mockAuthenticator{
		authenticateFunc: func(ctx context.Context, token string) (*model.Identity, error) {
			if token != "valid-token" {
				t.Errorf("token = %q, want valid-token", token)
			}
			return &model.Identity{Username: "tanaka", Role: model.RoleUser}, nil
		},
	}

	var got *model.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Fatalf("IdentityFromContext failed: %v", err)
		}
		got = identity
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	NewSessionMiddleware(authenticator)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got == nil || got.Username != "tanaka" {
		t.Errorf("identity = %+v", got)
	}
}

func TestSessionMiddleware_MissingHeader(t *testing.T) {
	authenticator := &mockAuthenticator{
		authenticateFunc: func(ctx context.Context, token string) (*model.Identity, error) {
			t.Error("Authenticate must not be called without a token")
			return nil, nil
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	rec := httptest.NewRecorder()

	NewSessionMiddleware(authenticator)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want UNAUTHORIZED", body.Code)
	}
}

func TestSessionMiddleware_MalformedHeader(t *testing.T) {
	authenticator := &mockAuthenticator{
		authenticateFunc: func(ctx context.Context, token string) (*model.Identity, error) {
			t.Error("Authenticate must not be called")
			return nil, nil
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be called")
	})

	for _, header := range []string{"valid-token", "Basic dXNlcg==", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		NewSessionMiddleware(authenticator)(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestSessionMiddleware_InvalidSession(t *testing.T) {
	authenticator := &mockAuthenticator{
		authenticateFunc: func(ctx context.Context, token string) (*model.Identity, error) {
			return nil, model.NewSessionExpiredError()
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()

	NewSessionMiddleware(authenticator)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Code != model.ErrCodeSessionExpired {
		t.Errorf("code = %q, want SESSION_EXPIRED", body.Code)
	}
}

func TestSessionMiddleware_StoreUnavailable(t *testing.T) {
	authenticator := &mockAuthenticator{
		authenticateFunc: func(ctx context.Context, token string) (*model.Identity, error) {
			return nil, fmt.Errorf("failed to find session: %w", kv.ErrUnavailable)
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/customers", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	NewSessionMiddleware(authenticator)(next).ServeHTTP(rec, req)

	// ストア障害をセッション切れと偽ってはならない
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Code != model.ErrCodeStoreUnavailable {
		t.Errorf("code = %q, want STORE_UNAVAILABLE", body.Code)
	}
}

func TestIdentityFromContext_Missing(t *testing.T) {
	_, err := IdentityFromContext(context.Background())
	if err == nil {
		t.Error("expected error for a context without identity")
	}
}
