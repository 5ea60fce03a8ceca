package identity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pocketflix-portal/internal/domain"
)

// DefaultCookie carries the session token for browser clients.
const DefaultCookie = "pf_session"

// JWTProvider accepts HS256 tokens signed with a shared secret. The subject claim is
// the principal.
type JWTProvider struct {
	secret []byte
	issuer string
	cookie string
	now    func() time.Time
}

func NewJWTProvider(secret, issuer, cookie string) (*JWTProvider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cookie == "" {
		cookie = DefaultCookie
	}
	return &JWTProvider{secret: []byte(secret), issuer: issuer, cookie: cookie, now: time.Now}, nil
}

type claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (p *JWTProvider) Identify(r *http.Request) (domain.Option[Identity], error) {
	raw := bearerOrCookie(r, p.cookie)
	if raw == "" {
		return domain.None[Identity](), nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, opts...)
	if err != nil {
		return domain.None[Identity](), fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || c.Subject == "" {
		return domain.None[Identity](), errors.New("token has no subject")
	}
	return domain.Some(Identity{Principal: c.Subject, Name: c.Name, Email: c.Email}), nil
}

// Issue signs a token for id that expires after ttl. Used by the token command and tests.
func (p *JWTProvider) Issue(id Identity, ttl time.Duration) (string, error) {
	now := p.now()
	c := claims{
		Name:  id.Name,
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Principal,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
}

// Cookie is the name of the session cookie this provider reads.
func (p *JWTProvider) Cookie() string { return p.cookie }
