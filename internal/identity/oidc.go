package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"pocketflix-portal/internal/domain"
)

const stateCookie = "pf_oauth_state"

type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Cookie stores the verified ID token. Defaults to DefaultCookie.
	Cookie string
	Secure bool
}

// OIDCProvider signs users in through an OpenID Connect issuer and keeps the raw ID
// token in a cookie. Every request re-verifies it.
type OIDCProvider struct {
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
	cookie   string
	secure   bool
	logger   *slog.Logger
}

// NewOIDCProvider discovers the issuer's endpoints.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig, logger *slog.Logger) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return NewOIDCProviderWith(verifier, oauthCfg, cfg, logger), nil
}

// NewOIDCProviderWith skips discovery, for tests and static key sets.
func NewOIDCProviderWith(verifier *oidc.IDTokenVerifier, oauthCfg *oauth2.Config, cfg OIDCConfig, logger *slog.Logger) *OIDCProvider {
	if logger == nil {
		logger = slog.Default()
	}
	cookie := cfg.Cookie
	if cookie == "" {
		cookie = DefaultCookie
	}
	return &OIDCProvider{verifier: verifier, oauth: oauthCfg, cookie: cookie, secure: cfg.Secure, logger: logger}
}

func (p *OIDCProvider) Identify(r *http.Request) (domain.Option[Identity], error) {
	raw := bearerOrCookie(r, p.cookie)
	if raw == "" {
		return domain.None[Identity](), nil
	}
	return p.verify(r.Context(), raw)
}

func (p *OIDCProvider) verify(ctx context.Context, raw string) (domain.Option[Identity], error) {
	token, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return domain.None[Identity](), fmt.Errorf("verify id token: %w", err)
	}
	var extra struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := token.Claims(&extra); err != nil {
		return domain.None[Identity](), fmt.Errorf("decode claims: %w", err)
	}
	return domain.Some(Identity{Principal: token.Subject, Name: extra.Name, Email: extra.Email}), nil
}

func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Login redirects to the issuer. The state value is kept in a short-lived cookie
// so concurrent logins do not clobber each other.
func (p *OIDCProvider) Login(w http.ResponseWriter, r *http.Request) {
	state, err := randString(16)
	if err != nil {
		http.Error(w, "could not start login", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, p.oauth.AuthCodeURL(state), http.StatusFound)
}

var errStateMismatch = errors.New("oauth state mismatch")

// Callback exchanges the authorization code and stores the ID token.
func (p *OIDCProvider) Callback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		p.logger.Warn("oidc callback rejected", "err", errStateMismatch)
		http.Error(w, errStateMismatch.Error(), http.StatusBadRequest)
		return
	}
	p.clear(w, stateCookie)

	token, err := p.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		p.logger.Warn("oidc code exchange failed", "err", err)
		http.Error(w, "could not exchange code", http.StatusBadRequest)
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "no id token in response", http.StatusBadRequest)
		return
	}
	id, err := p.verify(r.Context(), rawIDToken)
	if err != nil {
		p.logger.Warn("oidc id token rejected", "err", err)
		http.Error(w, "invalid id token", http.StatusUnauthorized)
		return
	}
	v, _ := id.Get()
	p.logger.Info("user signed in", "principal", v.Principal)

	http.SetCookie(w, &http.Cookie{
		Name:     p.cookie,
		Value:    rawIDToken,
		Path:     "/",
		Expires:  token.Expiry,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (p *OIDCProvider) Logout(w http.ResponseWriter, r *http.Request) {
	p.clear(w, p.cookie)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (p *OIDCProvider) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: p.secure})
}
