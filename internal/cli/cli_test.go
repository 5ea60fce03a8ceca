package cli

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/config"
	"pocketflix-portal/internal/identity"
)

func TestOpenIdentityModes(t *testing.T) {
	cfg := config.Default()
	p, auth, err := openIdentity(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, identity.None{}, p)
	assert.Nil(t, auth)

	cfg.Auth.Mode = "jwt"
	cfg.Auth.JWTSecret = "s3cret"
	p, auth, err = openIdentity(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &identity.JWTProvider{}, p)
	assert.Nil(t, auth)
}

func TestOpenBackendSeedsSampleCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Admins = []string{" aaaa-bbbb-0001 ", ""}
	cfg.Backend.Seed = true

	svc, closeFn, err := openBackend(context.Background(), cfg, newLogger(cfg))
	require.NoError(t, err)
	defer closeFn()

	ctx := actor.WithCaller(context.Background(), "aaaa-bbbb-0001")
	admin, err := svc.IsCallerAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, admin)

	categories, videos, quizzes := sampleCatalog()
	gotVideos, err := svc.GetVideos(ctx)
	require.NoError(t, err)
	assert.Len(t, gotVideos, len(videos))
	gotCategories, err := svc.GetCategories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, categories, gotCategories)
	gotQuizzes, err := svc.GetAllQuizzes(ctx)
	require.NoError(t, err)
	assert.Len(t, gotQuizzes, len(quizzes))
}

func TestSeedNeedsAnAdmin(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Seed = true
	_, _, err := openBackend(context.Background(), cfg, newLogger(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.admins")
}

func TestTokenCommandIssuesVerifiableToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  mode: jwt\n  jwt_secret: s3cret\n"), 0o600))

	var out bytes.Buffer
	cmd := NewTokenCmd(&path)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"dddd-eeee-1234", "--name", "Ann", "--ttl", "1h"})
	require.NoError(t, cmd.Execute())

	p, err := identity.NewJWTProvider("s3cret", "", "")
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(out.String()))
	got, err := p.Identify(req)
	require.NoError(t, err)
	id, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, "dddd-eeee-1234", id.Principal)
	assert.Equal(t, "Ann", id.Name)
}

func TestTokenCommandRequiresJWTMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cmd := NewTokenCmd(&path)
	cmd.SetArgs([]string{"dddd"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestNewLoggerLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "debug"
	assert.True(t, newLogger(cfg).Enabled(context.Background(), slog.LevelDebug))
	cfg.Log.Level = "bogus"
	assert.False(t, newLogger(cfg).Enabled(context.Background(), slog.LevelDebug))
}
