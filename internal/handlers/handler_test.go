// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory store and a miniredis Valkey.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/session"
	"storefront/internal/store/memory"
)

const testPassword = "correct horse battery staple"

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	Store      *memory.Store
	Valkey     *redis.Client
	Miniredis  *miniredis.Miniredis
	Sessions   *session.Store
	Catalog    *catalog.Service
	Auth       *Auth
	Categories *Categories
	Shop       *models.Shop
}

// newTestEnv creates a complete test environment with one shop.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	vk := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { vk.Close() })

	st := memory.New()
	shop, err := st.CreateShop(context.Background(), "Test Shop", "test-shop")
	if err != nil {
		t.Fatalf("create shop: %v", err)
	}

	sessions := session.NewStore(vk, false)
	svc := catalog.New(st,
		catalog.WithCache(cache.NewSnapshotCache(vk, time.Minute)),
		catalog.WithRecorder(st),
	)

	return &testEnv{
		Store:      st,
		Valkey:     vk,
		Miniredis:  mr,
		Sessions:   sessions,
		Catalog:    svc,
		Auth:       NewAuth(sessions, st),
		Categories: NewCategories(svc, st),
		Shop:       shop,
	}
}

// createUser adds an account with testPassword to the env's shop.
func (e *testEnv) createUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := models.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := e.Store.CreateUser(context.Background(), &models.User{
		ShopID:       e.Shop.ID,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Test User",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// createCategory adds a category to the env's shop through the catalog.
func (e *testEnv) createCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := e.Catalog.Create(context.Background(), e.Shop.ID, name, "")
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

// session returns a completed-2FA session for the env's shop.
func (e *testEnv) session() *session.Data {
	return testSession(uuid.New(), e.Shop.ID, "owner@example.com", string(models.RoleOwner), true)
}

// storedSession creates a real session in Valkey and returns its cookie.
func (e *testEnv) storedSession(t *testing.T, data *session.Data) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if _, err := e.Sessions.Create(context.Background(), w, data); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return middleware.WithSession(ctx, data)
}

// testSession creates a session.Data for testing.
func testSession(userID, shopID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		ShopID:      shopID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// jsonRequest builds a request with body encoded as JSON. A string body
// is sent verbatim.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rd io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	r = withChiURLParam(r, key, value)
	return r.WithContext(ctxWithSession(r.Context(), sess))
}

// decodeBody decodes a JSON response into v.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// assertError checks status and, when reason is not empty, the reason
// field of an error response.
func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, reason string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var body errorBody
	decodeBody(t, w, &body)
	if body.Error == "" {
		t.Error("error message is empty")
	}
	if body.Reason != reason {
		t.Errorf("reason = %q, want %q", body.Reason, reason)
	}
}
