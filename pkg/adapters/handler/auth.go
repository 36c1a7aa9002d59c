package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/go-linkbio/pkg/config"
	"github.com/wadjakorntonsri/go-linkbio/pkg/logger"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

const (
	stateCookieName = "oauthstate"
	sessionTTL      = 24 * time.Hour
)

// identity is what a provider tells us about the signed in user.
type identity struct {
	Email string
	Name  string
	Image string
}

type provider struct {
	config    *oauth2.Config
	fetchUser func(ctx context.Context, client *http.Client) (*identity, error)
}

type AuthHandler struct {
	providers     map[string]*provider
	users         ports.UserService
	jwtSecret     []byte
	frontendURL   string
	allowedEmails []string
	isProduction  bool
}

func NewAuthHandler(cfg *config.Config, users ports.UserService) *AuthHandler {
	h := &AuthHandler{
		providers:     map[string]*provider{},
		users:         users,
		jwtSecret:     []byte(cfg.JWTSecret),
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		isProduction:  cfg.IsProduction(),
	}

	if cfg.GoogleClientID != "" {
		h.providers["google"] = &provider{
			config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.GoogleRedirectURL,
				Scopes: []string{
					"https://www.googleapis.com/auth/userinfo.email",
					"https://www.googleapis.com/auth/userinfo.profile",
				},
				Endpoint: google.Endpoint,
			},
			fetchUser: fetchGoogleUser,
		}
	}
	if cfg.GitHubClientID != "" {
		h.providers["github"] = &provider{
			config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				RedirectURL:  cfg.GitHubRedirectURL,
				Scopes:       []string{"read:user", "user:email"},
				Endpoint:     github.Endpoint,
			},
			fetchUser: fetchGitHubUser,
		}
	}
	return h
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	p, ok := h.providers[r.PathValue("provider")]
	if !ok {
		writeErrorMessage(w, http.StatusNotFound, "Unknown sign in provider")
		return
	}
	state := h.generateStateOauthCookie(w)
	http.Redirect(w, r, p.config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")
	log := logger.GetAppLogger().WithField("provider", name)

	p, ok := h.providers[name]
	if !ok {
		writeErrorMessage(w, http.StatusNotFound, "Unknown sign in provider")
		return
	}

	oauthState, err := r.Cookie(stateCookieName)
	if err != nil {
		log.WithError(err).Warn("Callback error: missing oauthstate cookie")
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}
	if r.FormValue("state") != oauthState.Value {
		log.Warn("Callback error: invalid oauth state")
		writeErrorMessage(w, http.StatusBadRequest, "Invalid oauth state")
		return
	}

	token, err := p.config.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		log.WithError(err).Error("Callback error: code exchange failed")
		writeErrorMessage(w, http.StatusUnauthorized, "Code exchange failed")
		return
	}

	id, err := p.fetchUser(r.Context(), p.config.Client(r.Context(), token))
	if err != nil {
		log.WithError(err).Error("Callback error: failed getting user info")
		writeErrorMessage(w, http.StatusBadGateway, "Failed getting user info")
		return
	}

	if !h.emailAllowed(id.Email) {
		log.WithField("email", id.Email).Warn("Callback error: email not in allowlist")
		writeErrorMessage(w, http.StatusForbidden, "Access denied: your email is not in the allowlist")
		return
	}

	user, err := h.users.UpsertIdentity(r.Context(), id.Email, id.Name, id.Image)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tokenString, expires, err := h.signToken(user.ID)
	if err != nil {
		log.WithError(err).Error("Callback error: failed signing JWT")
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    tokenString,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("Login successful")
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.frontendURL+"/login", http.StatusTemporaryRedirect)
}

// signToken issues the session JWT. The subject is the stable user id.
func (h *AuthHandler) signToken(userID string) (string, time.Time, error) {
	expires := time.Now().Add(sessionTTL)
	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	return s, expires, err
}

func (h *AuthHandler) emailAllowed(email string) bool {
	if len(h.allowedEmails) == 0 {
		return true
	}
	return slices.ContainsFunc(h.allowedEmails, func(e string) bool {
		return strings.EqualFold(strings.TrimSpace(e), email)
	})
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

func fetchGoogleUser(ctx context.Context, client *http.Client) (*identity, error) {
	var u struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, client, "https://www.googleapis.com/oauth2/v2/userinfo", &u); err != nil {
		return nil, err
	}
	if u.Email == "" {
		return nil, errors.New("google account has no email")
	}
	return &identity{Email: u.Email, Name: u.Name, Image: u.Picture}, nil
}

func fetchGitHubUser(ctx context.Context, client *http.Client) (*identity, error) {
	var u struct {
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, "https://api.github.com/user", &u); err != nil {
		return nil, err
	}

	// The profile email is empty when the user keeps it private.
	if u.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, "https://api.github.com/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				u.Email = e.Email
				break
			}
		}
	}
	if u.Email == "" {
		return nil, errors.New("github account has no verified primary email")
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &identity{Email: u.Email, Name: name, Image: u.AvatarURL}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
