package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/backend"
	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/infra/postgres"
	pgmigrations "pocketflix-portal/internal/infra/postgres/migrations"
	infraredis "pocketflix-portal/internal/infra/redis"
	"pocketflix-portal/internal/queries"
	qc "pocketflix-portal/internal/querycache"
	"pocketflix-portal/internal/quizflow"
)

const (
	adminPrincipal = "aaaa-bbbb-cccc-0001"
	userPrincipal  = "dddd-eeee-ffff-1234"
)

func TestTakeQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if _, err := pgmigrations.Apply(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := postgres.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	service := backend.NewService(postgres.NewRepository(pool))
	if err := service.Bootstrap(ctx, []domain.Principal{adminPrincipal}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	cache := qc.New(infraredis.NewQueryStore(redisClient, time.Hour, nil))
	client := queries.New(actor.Ready(service), cache, nil, queries.Config{StaleTime: time.Minute, Retry: 1}, nil)

	admin := actor.WithCaller(ctx, adminPrincipal)
	if err := client.AddCategory(admin, "History"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	video := domain.Video{ID: "v1", Title: "Rome", URL: "https://video.example/rome", Category: "History",
		Thumbnail: domain.BlobFromURL("https://img.example/rome.png")}
	if err := client.AddVideo(admin, video); err != nil {
		t.Fatalf("add video: %v", err)
	}
	quiz := domain.Quiz{ID: "q1", VideoID: "v1", Questions: []domain.QuizQuestion{
		{Question: "Founded?", Answers: []string{"753 BC", "1066"}, CorrectAnswerIndex: 0},
		{Question: "River?", Answers: []string{"Seine", "Tiber", "Thames"}, CorrectAnswerIndex: 1},
	}}
	if err := client.CreateQuiz(admin, quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	user := actor.WithCaller(ctx, userPrincipal)
	if res := client.Leaderboard(user); !res.IsSuccess() || len(res.Data) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", res)
	}

	flow := quizflow.NewService(infraredis.NewAttemptStore(redisClient, time.Hour), nil)
	attempt, err := flow.Start(user, userPrincipal, quiz)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	for q, a := range []int{0, 1} {
		if _, err := flow.Answer(user, userPrincipal, attempt.ID, q, a); err != nil {
			t.Fatalf("answer %d: %v", q, err)
		}
	}
	scored, err := flow.Submit(user, userPrincipal, attempt.ID, client)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if scored.Score != 2 || scored.Verdict() != "Perfect score!" {
		t.Fatalf("unexpected scored attempt %+v", scored)
	}

	board := client.Leaderboard(user)
	if len(board.Data) != 1 || board.Data[0].User != userPrincipal || board.Data[0].Score != 2 {
		t.Fatalf("expected leaderboard refetched after takeQuiz, got %+v", board.Data)
	}
	mine := client.MyQuizResults(user)
	if len(mine.Data) != 1 || mine.Data[0].QuizID != "q1" {
		t.Fatalf("unexpected my results %+v", mine.Data)
	}

	if err := client.DeleteCategory(admin, "History"); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	settings := client.SettingsData(user)
	if len(settings.Data.Categories) != 0 || len(settings.Data.Videos) != 1 {
		t.Fatalf("expected settings refetched after category delete, got %+v", settings.Data)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "portal", "POSTGRES_PASSWORD": "portalpass", "POSTGRES_DB": "portaldb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://portal:portalpass@%s:%s/portaldb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
