package identity

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"pocketflix-portal/internal/actor"
)

func TestJWTProviderRoundTrip(t *testing.T) {
	p, err := NewJWTProvider("s3cret", "pocketflix", "")
	require.NoError(t, err)

	token, err := p.Issue(Identity{Principal: "aaaa-bbbb-cccc-1234", Name: "Ana"}, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	got, err := p.Identify(r)
	require.NoError(t, err)
	id, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, "aaaa-bbbb-cccc-1234", id.Principal)
	assert.Equal(t, "Ana", id.Name)

	cookieReq := httptest.NewRequest(http.MethodGet, "/", nil)
	cookieReq.AddCookie(&http.Cookie{Name: DefaultCookie, Value: token})
	got, err = p.Identify(cookieReq)
	require.NoError(t, err)
	assert.True(t, got.IsSome())
}

func TestJWTProviderRejectsBadTokens(t *testing.T) {
	p, _ := NewJWTProvider("s3cret", "", "")
	other, _ := NewJWTProvider("different", "", "")

	forged, err := other.Issue(Identity{Principal: "p1"}, time.Hour)
	require.NoError(t, err)
	expired, err := p.Issue(Identity{Principal: "p1"}, -time.Minute)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "p1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{"forged": forged, "expired": expired, "none": unsigned} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		got, err := p.Identify(r)
		assert.Error(t, err, name)
		assert.True(t, got.IsNone(), name)
	}

	anon, err := p.Identify(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, anon.IsNone())
}

func TestNewJWTProviderNeedsSecret(t *testing.T) {
	_, err := NewJWTProvider("", "", "")
	assert.Error(t, err)
}

func TestMiddlewareSetsCaller(t *testing.T) {
	p, _ := NewJWTProvider("s3cret", "", "")
	token, _ := p.Issue(Identity{Principal: "p1"}, time.Hour)

	var seen string
	var authed bool
	h := Middleware(p, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = actor.CallerFrom(r.Context())
		authed = FromContext(r.Context()).IsSome()
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "p1", seen)
	assert.True(t, authed)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "", seen)
	assert.False(t, authed)
}

const testIssuer = "https://issuer.example.com"

func newTestOIDC(t *testing.T) (*OIDCProvider, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	verifier := oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: "portal"})
	oauthCfg := &oauth2.Config{
		ClientID:    "portal",
		RedirectURL: "http://localhost:8080/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: testIssuer + "/auth", TokenURL: testIssuer + "/token"},
		Scopes:      []string{oidc.ScopeOpenID},
	}
	return NewOIDCProviderWith(verifier, oauthCfg, OIDCConfig{}, nil), key
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, aud string, exp time.Time) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   aud,
		"sub":   "user-42",
		"email": "u@example.com",
		"iat":   time.Now().Unix(),
		"exp":   exp.Unix(),
	}).SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestOIDCProviderVerifiesCookieToken(t *testing.T) {
	p, key := newTestOIDC(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookie, Value: signIDToken(t, key, "portal", time.Now().Add(time.Hour))})
	got, err := p.Identify(r)
	require.NoError(t, err)
	id, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, "user-42", id.Principal)
	assert.Equal(t, "u@example.com", id.Email)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookie, Value: signIDToken(t, key, "someone-else", time.Now().Add(time.Hour))})
	got, err = p.Identify(r)
	assert.Error(t, err)
	assert.True(t, got.IsNone())
}

func TestOIDCLoginSetsStateCookie(t *testing.T) {
	p, _ := newTestOIDC(t)
	rec := httptest.NewRecorder()
	p.Login(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", loc.Path)

	var state string
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookie {
			state = c.Value
		}
	}
	require.NotEmpty(t, state)
	assert.Equal(t, state, loc.Query().Get("state"))
}

func TestOIDCCallbackRejectsStateMismatch(t *testing.T) {
	p, _ := newTestOIDC(t)

	rec := httptest.NewRecorder()
	p.Callback(rec, httptest.NewRequest(http.MethodGet, "/callback?state=abc&code=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	r := httptest.NewRequest(http.MethodGet, "/callback?state=abc&code=x", nil)
	r.AddCookie(&http.Cookie{Name: stateCookie, Value: "other"})
	rec = httptest.NewRecorder()
	p.Callback(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOIDCLogoutClearsCookie(t *testing.T) {
	p, _ := newTestOIDC(t)
	rec := httptest.NewRecorder()
	p.Logout(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}
