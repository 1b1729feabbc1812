package integration

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"poll-simulator/internal/app"
	"poll-simulator/internal/domain"
	pgstore "poll-simulator/internal/infra/postgres"
	pgmigrations "poll-simulator/internal/infra/postgres/migrations"
	infraredis "poll-simulator/internal/infra/redis"
)

func TestSimulationEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL := "postgres://poll:pollpass@" + containerEndpoint(t, ctx, "postgres:15-alpine", "5432/tcp",
		map[string]string{"POSTGRES_USER": "poll", "POSTGRES_PASSWORD": "pollpass", "POSTGRES_DB": "polldb"},
		60*time.Second) + "/polldb?sslmode=disable"
	redisClient := goredis.NewClient(&goredis.Options{
		Addr: containerEndpoint(t, ctx, "redis:7-alpine", "6379/tcp", nil, 30*time.Second),
	})
	defer redisClient.Close()

	store := migrateAndSeed(t, ctx, pgURL, sampleBank())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewBankLoader(pool)

	bankRepo := infraredis.NewBankRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewSimulationService(sessionStore, bankRepo, app.SimulationOptions{Seed: 5})

	info, err := service.Start(ctx, "bank-1", 6)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var stats domain.Statistics
	for i := 0; i < 3; i++ {
		stats, err = service.Vote(ctx, info.ID)
		if err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
	if stats.Round != 3 || stats.Total() != 6 {
		t.Fatalf("expected 6 selections after round 3, got round=%d total=%d", stats.Round, stats.Total())
	}

	published, err := sessionStore.LatestStatistics(ctx, info.ID)
	if err != nil {
		t.Fatalf("latest statistics: %v", err)
	}
	if published.Round != 3 || published.Correct != stats.Correct {
		t.Fatalf("published statistics out of date: %+v", published)
	}
	if got, err := redisClient.HGet(ctx, "simulation:"+info.ID+":counters", "round").Result(); err != nil || got != "3" {
		t.Fatalf("expected round counter 3, got %q (%v)", got, err)
	}

	// A rewritten bank stays hidden behind the cache until it is invalidated.
	updated := sampleBank()
	updated.Questions = append(updated.Questions, domain.QuestionDef{
		Text:              "Which are even?",
		MultipleSelection: true,
		Answers:           []domain.AnswerDef{{Text: "2", Correct: true}, {Text: "7"}, {Text: "8", Correct: true}},
	})
	if err := store.SaveBank(ctx, updated); err != nil {
		t.Fatalf("update bank: %v", err)
	}
	if cached, err := bankRepo.GetBank(ctx, "bank-1"); err != nil || len(cached.Questions) != 1 {
		t.Fatalf("expected cached bank with 1 question, got %d (%v)", len(cached.Questions), err)
	}
	if err := bankRepo.Invalidate(ctx, "bank-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	second, err := service.Start(ctx, "bank-1", 4)
	if err != nil {
		t.Fatalf("start after update: %v", err)
	}
	if second.Questions != 2 {
		t.Fatalf("expected reloaded bank with 2 questions, got %d", second.Questions)
	}

	if _, err := service.Start(ctx, "bank-missing", 4); !errors.Is(err, domain.ErrQuestionBankNotFound) {
		t.Fatalf("expected bank not found, got %v", err)
	}

	service.Close(ctx, info.ID)
	if _, err := sessionStore.LatestStatistics(ctx, info.ID); !errors.Is(err, domain.ErrSimulationNotFound) {
		t.Fatalf("expected statistics removed on close, got %v", err)
	}
}

// containerEndpoint starts image and returns the mapped host:port of exposed.
func containerEndpoint(t *testing.T, ctx context.Context, image, exposed string, env map[string]string, startup time.Duration) string {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        image,
			Env:          env,
			ExposedPorts: []string{exposed},
			WaitingFor:   wait.ForListeningPort(nat.Port(exposed)).WithStartupTimeout(startup),
		},
		Started: true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", image, err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, nat.Port(exposed), "")
	if err != nil {
		t.Fatalf("%s endpoint: %v", image, err)
	}
	return endpoint
}

func migrateAndSeed(t *testing.T, ctx context.Context, dsn string, bank domain.QuestionBank) *pgstore.BankStore {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := pgstore.NewBankStore(db)
	if err := store.SaveBank(ctx, bank); err != nil {
		t.Fatalf("save bank: %v", err)
	}
	ids, err := store.ListBankIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != bank.ID {
		t.Fatalf("expected stored bank %s, got %v (%v)", bank.ID, ids, err)
	}
	return store
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID: "bank-1",
		Questions: []domain.QuestionDef{
			{
				Text: "What is 2 + 2?",
				Answers: []domain.AnswerDef{
					{Text: "3", Correct: false},
					{Text: "4", Correct: true},
					{Text: "5", Correct: false},
				},
			},
		},
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
