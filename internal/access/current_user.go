// Package access composes the caller's identity with backend role data and decides
// what the caller may see.
package access

import (
	"context"

	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/identity"
	"pocketflix-portal/internal/queries"
)

// UserState is the derived view of the current caller.
type UserState struct {
	IsAuthenticated bool                              `json:"isAuthenticated"`
	IsAdmin         bool                              `json:"isAdmin"`
	IsLoading       bool                              `json:"isLoading"`
	UserProfile     domain.Option[domain.UserProfile] `json:"userProfile"`
	// IsAdminLoaded is true once the admin check finished, successfully or not.
	IsAdminLoaded bool `json:"isAdminLoaded"`
}

// CurrentUser reads the identity attached to ctx and resolves role and profile
// through the query cache. IsAdmin is never true before IsAdminLoaded.
func CurrentUser(ctx context.Context, c *queries.Client) UserState {
	authenticated := identity.FromContext(ctx).IsSome()

	admin := c.IsCallerAdmin(ctx, authenticated)
	profile := c.CallerUserProfile(ctx)

	st := UserState{
		IsAuthenticated: authenticated,
		IsAdminLoaded:   admin.IsFetched,
		IsLoading:       c.Accessor().Fetching() || admin.IsLoading() || profile.IsLoading(),
	}
	if st.IsAdminLoaded && admin.IsSuccess() {
		st.IsAdmin = admin.Data
	}
	if authenticated && profile.IsSuccess() {
		st.UserProfile = profile.Data
	}
	return st
}

type stateKey struct{}

func withState(ctx context.Context, st UserState) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// StateFrom returns the state resolved by Require.
func StateFrom(ctx context.Context) (UserState, bool) {
	st, ok := ctx.Value(stateKey{}).(UserState)
	return st, ok
}
