package memory

import (
	"context"
	"errors"
	"testing"

	"pocketflix-portal/internal/domain"
)

func TestRepositoryVideosKeepOrderAndReportConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	for _, id := range []string{"v2", "v1", "v3"} {
		if err := repo.InsertVideo(ctx, domain.Video{ID: id, Title: id}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if err := repo.InsertVideo(ctx, domain.Video{ID: "v1"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := repo.UpdateVideo(ctx, domain.Video{ID: "nope"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteVideo(ctx, "v1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	videos, _ := repo.ListVideos(ctx)
	if len(videos) != 2 || videos[0].ID != "v2" || videos[1].ID != "v3" {
		t.Fatalf("unexpected videos %+v", videos)
	}
	videos[0].Title = "mutated"
	again, _ := repo.ListVideos(ctx)
	if again[0].Title != "v2" {
		t.Fatalf("list must return a copy")
	}
}

func TestRepositoryCategories(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	_ = repo.InsertCategory(ctx, "History")
	if err := repo.InsertCategory(ctx, "History"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected duplicate category rejected, got %v", err)
	}
	if err := repo.DeleteCategory(ctx, "Science"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteCategory(ctx, "History"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cats, _ := repo.ListCategories(ctx)
	if len(cats) != 0 {
		t.Fatalf("expected no categories, got %v", cats)
	}
}

func TestRepositoryOptionalLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	if q, _ := repo.GetQuiz(ctx, "q1"); q.IsSome() {
		t.Fatalf("expected no quiz")
	}
	if cfg, _ := repo.LoadSiteConfig(ctx); cfg.IsSome() {
		t.Fatalf("expected no site config")
	}
	_ = repo.PutProfile(ctx, "p2", domain.UserProfile{Name: "B"})
	_ = repo.PutProfile(ctx, "p1", domain.UserProfile{Name: "A"})
	users, _ := repo.ListProfiles(ctx)
	if len(users) != 2 || users[0].Principal != "p1" {
		t.Fatalf("expected users sorted by principal, got %+v", users)
	}
	profile, _ := repo.GetProfile(ctx, "p1")
	if got, ok := profile.Get(); !ok || got.Name != "A" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}
