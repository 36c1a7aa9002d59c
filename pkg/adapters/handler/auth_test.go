package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/wadjakorntonsri/go-linkbio/pkg/adapters/repository"
	"github.com/wadjakorntonsri/go-linkbio/pkg/config"
	"github.com/wadjakorntonsri/go-linkbio/pkg/core/services"
)

// newTestAuth returns an AuthHandler whose google provider talks to a local
// token endpoint and reports email as the signed in identity.
func newTestAuth(t *testing.T, email string, allowed []string) (*AuthHandler, *services.UserService, *config.Config) {
	t.Helper()
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenServer.Close)

	store, err := repository.OpenSQLite(context.Background(), "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	users := services.NewUserService(store.Users)

	cfg := &config.Config{
		JWTSecret:         testSecret,
		FrontendURL:       "http://localhost:3000/dashboard",
		GoogleClientID:    "client-id",
		GoogleRedirectURL: "http://localhost:8080/auth/google/callback",
		AllowedEmails:     allowed,
	}
	h := NewAuthHandler(cfg, users)
	p := h.providers["google"]
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	}
	p.fetchUser = func(ctx context.Context, client *http.Client) (*identity, error) {
		return &identity{Email: email, Name: "Test User"}, nil
	}
	return h, users, cfg
}

func loginState(t *testing.T, h *AuthHandler) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest("GET", "/auth/google/login", nil)
	req.SetPathValue("provider", "google")
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)

	for _, c := range rr.Result().Cookies() {
		if c.Name == stateCookieName {
			assert.Equal(t, c.Value, loc.Query().Get("state"))
			return c
		}
	}
	t.Fatal("no state cookie set")
	return nil
}

func callback(h *AuthHandler, state *http.Cookie, stateParam string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/auth/google/callback?code=abc&state="+url.QueryEscape(stateParam), nil)
	req.SetPathValue("provider", "google")
	if state != nil {
		req.AddCookie(state)
	}
	rr := httptest.NewRecorder()
	h.Callback(rr, req)
	return rr
}

func TestOAuthCallback(t *testing.T) {
	h, users, cfg := newTestAuth(t, "Owner@Example.com", nil)
	state := loginState(t, h)

	rr := callback(h, state, state.Value)
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code, rr.Body.String())
	assert.Equal(t, cfg.FrontendURL, rr.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == authCookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	// The session names the stored user by id.
	var userID string
	req := httptest.NewRequest("GET", "/api/user/profile", nil)
	req.AddCookie(session)
	NewMiddleware(cfg, nil).AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = UserIDFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	require.NotEmpty(t, userID)

	u, err := users.GetProfile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", u.Email)
	assert.Equal(t, "Test User", u.Name)
}

func TestOAuthCallbackRejects(t *testing.T) {
	t.Run("State Mismatch", func(t *testing.T) {
		h, _, _ := newTestAuth(t, "a@example.com", nil)
		state := loginState(t, h)
		rr := callback(h, state, "forged")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Missing State Cookie", func(t *testing.T) {
		h, _, _ := newTestAuth(t, "a@example.com", nil)
		rr := callback(h, nil, "anything")
		assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
	})

	t.Run("Not Allowlisted", func(t *testing.T) {
		h, _, _ := newTestAuth(t, "stranger@example.com", []string{"owner@example.com"})
		state := loginState(t, h)
		rr := callback(h, state, state.Value)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.True(t, strings.Contains(rr.Body.String(), "allowlist"))
	})

	t.Run("Allowlist Ignores Case", func(t *testing.T) {
		h, _, _ := newTestAuth(t, "Owner@Example.com", []string{" owner@example.com"})
		state := loginState(t, h)
		rr := callback(h, state, state.Value)
		assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	})
}
