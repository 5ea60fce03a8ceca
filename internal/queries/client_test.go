package queries_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/backend"
	"pocketflix-portal/internal/blob"
	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/infra/memory"
	"pocketflix-portal/internal/queries"
	qc "pocketflix-portal/internal/querycache"
)

const (
	admin = "admin-0000"
	alice = "aaaa-bbbb-cccc-1234"
)

// countingBackend records how often each read reaches the backend.
type countingBackend struct {
	actor.Backend

	mu    sync.Mutex
	calls map[string]int
	// gate, when set, blocks AddCategory until closed
	gate chan struct{}
}

func (b *countingBackend) hit(name string) {
	b.mu.Lock()
	b.calls[name]++
	b.mu.Unlock()
}

func (b *countingBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *countingBackend) GetCategories(ctx context.Context) ([]domain.Category, error) {
	b.hit("categories")
	return b.Backend.GetCategories(ctx)
}

func (b *countingBackend) GetVideos(ctx context.Context) ([]domain.Video, error) {
	b.hit("videos")
	return b.Backend.GetVideos(ctx)
}

func (b *countingBackend) GetSettingsData(ctx context.Context) (domain.SettingsData, error) {
	b.hit("settingsData")
	return b.Backend.GetSettingsData(ctx)
}

func (b *countingBackend) GetMyQuizResults(ctx context.Context) ([]domain.QuizResult, error) {
	b.hit("myQuizResults:" + actor.CallerFrom(ctx))
	return b.Backend.GetMyQuizResults(ctx)
}

func (b *countingBackend) IsCallerAdmin(ctx context.Context) (bool, error) {
	b.hit("isCallerAdmin")
	return b.Backend.IsCallerAdmin(ctx)
}

func (b *countingBackend) AddCategory(ctx context.Context, c domain.Category) error {
	if b.gate != nil {
		<-b.gate
	}
	return b.Backend.AddCategory(ctx, c)
}

func newClient(t *testing.T) (*queries.Client, *countingBackend) {
	t.Helper()
	svc := backend.NewService(memory.NewRepository())
	if err := svc.Bootstrap(context.Background(), []domain.Principal{admin}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	counting := &countingBackend{Backend: svc, calls: map[string]int{}}
	uploader := blob.NewUploader(memory.NewBlobStore(), "/media")
	client := queries.New(actor.Ready(counting), qc.New(qc.NewMemoryStore()), uploader,
		queries.Config{StaleTime: time.Hour, Retry: 3}, nil)
	return client, counting
}

func as(p domain.Principal) context.Context {
	return actor.WithCaller(context.Background(), p)
}

func TestCategoryDeletionRefetchesCategoriesAndSettings(t *testing.T) {
	client, counting := newClient(t)
	ctx := as(admin)
	if err := client.AddCategory(ctx, "History"); err != nil {
		t.Fatalf("add category: %v", err)
	}

	client.Categories(ctx)
	client.SettingsData(ctx)
	client.Videos(ctx)
	client.Categories(ctx)
	client.SettingsData(ctx)
	if counting.count("categories") != 1 || counting.count("settingsData") != 1 {
		t.Fatalf("expected cached reads, got %v", counting.calls)
	}

	if err := client.DeleteCategory(ctx, "History"); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	cats := client.Categories(ctx)
	settings := client.SettingsData(ctx)
	client.Videos(ctx)

	if counting.count("categories") != 2 || counting.count("settingsData") != 2 {
		t.Fatalf("expected categories and settingsData refetched, got %v", counting.calls)
	}
	if counting.count("videos") != 1 {
		t.Fatalf("videos must stay cached, got %v", counting.calls)
	}
	if len(cats.Data) != 0 || len(settings.Data.Categories) != 0 {
		t.Fatalf("expected fresh empty categories, got %v / %v", cats.Data, settings.Data.Categories)
	}
}

func TestCallerScopedReadsDoNotShareEntries(t *testing.T) {
	client, counting := newClient(t)

	client.MyQuizResults(as(alice))
	client.MyQuizResults(as(admin))
	client.MyQuizResults(as(alice))
	if counting.count("myQuizResults:"+alice) != 1 || counting.count("myQuizResults:"+admin) != 1 {
		t.Fatalf("expected one fetch per principal, got %v", counting.calls)
	}
}

func TestIsCallerAdminDisabledWithoutIdentityAndAlwaysRefetched(t *testing.T) {
	client, counting := newClient(t)

	res := client.IsCallerAdmin(as(""), false)
	if res.Status != qc.StatusPending || res.IsFetched || res.Data {
		t.Fatalf("expected disabled read, got %+v", res)
	}
	if counting.count("isCallerAdmin") != 0 {
		t.Fatalf("disabled read must not reach the backend")
	}

	if res := client.IsCallerAdmin(as(admin), true); !res.IsSuccess() || !res.Data {
		t.Fatalf("expected admin, got %+v", res)
	}
	client.IsCallerAdmin(as(admin), true)
	if counting.count("isCallerAdmin") != 2 {
		t.Fatalf("admin check must refetch every time, got %d", counting.count("isCallerAdmin"))
	}
}

func TestActorNotReady(t *testing.T) {
	dial := func(ctx context.Context) (actor.Backend, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	accessor := actor.NewAccessor(dial, time.Millisecond, nil)
	accessor.Start(ctx)

	client := queries.New(accessor, qc.New(qc.NewMemoryStore()), nil, queries.Config{}, nil)

	videos := client.Videos(ctx)
	if videos.Data == nil || len(videos.Data) != 0 || videos.IsError() {
		t.Fatalf("expected empty list while not ready, got %+v", videos)
	}
	if quiz := client.Quiz(ctx, "q1"); quiz.Status != qc.StatusPending || quiz.IsError() {
		t.Fatalf("expected pending quiz read, got %+v", quiz)
	}
	if err := client.AddCategory(ctx, "History"); !errors.Is(err, domain.ErrActorNotReady) {
		t.Fatalf("expected ErrActorNotReady, got %v", err)
	}
}

func TestPendingTracksInFlightMutations(t *testing.T) {
	client, counting := newClient(t)
	counting.gate = make(chan struct{})

	done := make(chan error)
	go func() { done <- client.AddCategory(as(admin), "History") }()

	deadline := time.Now().Add(2 * time.Second)
	for !client.Pending(queries.OpAddCategory) {
		if time.Now().After(deadline) {
			t.Fatalf("mutation never reported pending")
		}
		time.Sleep(time.Millisecond)
	}
	close(counting.gate)
	if err := <-done; err != nil {
		t.Fatalf("add category: %v", err)
	}
	if client.Pending(queries.OpAddCategory) {
		t.Fatalf("pending must clear after completion")
	}
}

func TestMutationErrorsAreWrapped(t *testing.T) {
	client, _ := newClient(t)
	err := client.AddCategory(as(alice), "History")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAddVideoUploadsPendingThumbnail(t *testing.T) {
	client, _ := newClient(t)
	ctx := as(admin)
	_ = client.AddCategory(ctx, "History")

	var last int
	video := domain.Video{ID: "v1", Title: "Rome", URL: "https://v/rome", Category: "History",
		Thumbnail: domain.BlobFromBytes([]byte("\x89PNG thumbnail")).WithUploadProgress(func(p int) { last = p })}
	if err := client.AddVideo(ctx, video); err != nil {
		t.Fatalf("add video: %v", err)
	}
	if last != 100 {
		t.Fatalf("expected upload to reach 100%%, got %d", last)
	}
	videos := client.Videos(ctx)
	if len(videos.Data) != 1 || videos.Data[0].Thumbnail.Pending() {
		t.Fatalf("expected stored thumbnail reference, got %+v", videos.Data)
	}
}

func TestUpdateHomePageTextExtendedKeepsOtherFields(t *testing.T) {
	client, _ := newClient(t)
	ctx := as(admin)
	if err := client.UpdateDonationLink(ctx, "https://donate.example"); err != nil {
		t.Fatalf("donation link: %v", err)
	}
	err := client.UpdateHomePageTextExtended(ctx, domain.HomePageText{
		HomeHeroHeading:       "Watch and learn",
		FeaturedVideosHeading: "Picks",
	})
	if err != nil {
		t.Fatalf("update text: %v", err)
	}
	data := client.SettingsData(ctx).Data
	if data.AdminConfig.HomeHeroHeading != "Watch and learn" || data.AdminConfig.HomePageText != "Picks" {
		t.Fatalf("text not applied: %+v", data.AdminConfig)
	}
	if data.AdminConfig.DonationLink != "https://donate.example" {
		t.Fatalf("unrelated fields must survive, got %q", data.AdminConfig.DonationLink)
	}
}

func TestInvalidationSets(t *testing.T) {
	set := queries.InvalidationSet(queries.OpDeleteCategory, alice)
	if len(set) != 2 || !set[0].Equal(queries.KeyCategories) || !set[1].Equal(queries.KeySettingsData) {
		t.Fatalf("unexpected deleteCategory set %v", set)
	}
	profile := queries.InvalidationSet(queries.OpSaveCallerUserProfile, alice)
	found := false
	for _, k := range profile {
		if k.Equal(queries.CurrentProfileKey(alice)) {
			found = true
		}
	}
	if !found {
		t.Fatalf("saving a profile must invalidate the caller's current profile, got %v", profile)
	}
}
