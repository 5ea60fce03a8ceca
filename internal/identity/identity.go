// Package identity resolves who is calling the portal. A missing identity is not an
// error: the request is served anonymously.
package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/domain"
)

// Identity is an authenticated caller as seen by the identity provider.
type Identity struct {
	Principal domain.Principal `json:"principal"`
	Name      string           `json:"name,omitempty"`
	Email     string           `json:"email,omitempty"`
}

// Provider extracts an identity from a request.
type Provider interface {
	Identify(r *http.Request) (domain.Option[Identity], error)
}

// None treats every request as anonymous.
type None struct{}

func (None) Identify(*http.Request) (domain.Option[Identity], error) {
	return domain.None[Identity](), nil
}

type identityKey struct{}

// WithIdentity attaches id to ctx and sets the actor caller to its principal.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, id)
	return actor.WithCaller(ctx, id.Principal)
}

// FromContext returns the identity attached by Middleware.
func FromContext(ctx context.Context) domain.Option[Identity] {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok && id.Principal != "" {
		return domain.Some(id)
	}
	return domain.None[Identity]()
}

// Middleware resolves the identity of every request. Credentials that fail to verify
// are logged and the request continues anonymously.
func Middleware(p Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := p.Identify(r)
			if err != nil {
				logger.Debug("identity rejected", "path", r.URL.Path, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if v, ok := id.Get(); ok {
				r = r.WithContext(WithIdentity(r.Context(), v))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerOrCookie returns the raw token from the Authorization header, falling back
// to the named cookie.
func bearerOrCookie(r *http.Request, cookie string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie == "" {
		return ""
	}
	if c, err := r.Cookie(cookie); err == nil {
		return c.Value
	}
	return ""
}
