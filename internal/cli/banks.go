package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"poll-simulator/internal/app"
	"poll-simulator/internal/config"
	"poll-simulator/internal/domain"
	"poll-simulator/internal/infra/file"
	"poll-simulator/internal/infra/memory"
	pgstore "poll-simulator/internal/infra/postgres"
	redisstore "poll-simulator/internal/infra/redis"
)

// backends holds the optional external clients; both may be nil.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func openBackends(ctx context.Context, cfg config.Config) (backends, error) {
	var b backends
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return backends{}, err
		}
		b.pool = pool
	}
	return b, nil
}

func (b backends) close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

// bankRepository picks the loader (Postgres, YAML directory, built-in sample) and the cache
// in front of it (Redis or in-process).
func bankRepository(cfg config.Config, b backends, logger *slog.Logger) app.BankRepository {
	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBanks())
	source := "sample"
	switch {
	case b.pool != nil:
		loader = pgstore.NewBankLoader(b.pool)
		source = "postgres"
	case cfg.Bank.Dir != "":
		loader = file.NewBankLoader(cfg.Bank.Dir)
		source = "file"
	}

	ttl := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	if b.redis != nil {
		logger.Debug("question banks cached in redis", "source", source, "ttl", ttl)
		return redisstore.NewBankRepository(b.redis, loader, ttl)
	}
	logger.Debug("question banks cached in memory", "source", source, "ttl", ttl)
	return memory.NewBankRepository(loader, ttl)
}

func sessionRepository(cfg config.Config, b backends) app.SessionRepository {
	if b.redis != nil {
		return redisstore.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}
	return memory.NewSessionStore()
}

func simulationOptions(cfg config.Config, logger *slog.Logger) (app.SimulationOptions, error) {
	mode, err := domain.ParseSelectionMode(cfg.Simulation.Selection)
	if err != nil {
		return app.SimulationOptions{}, err
	}
	return app.SimulationOptions{
		Mode:     mode,
		IDFormat: cfg.Simulation.IDFormat,
		Seed:     cfg.Simulation.Seed,
		Logger:   logger,
	}, nil
}

// sampleBanks provides the built-in demo bank used when no store is configured.
func sampleBanks() map[string]domain.QuestionBank {
	return map[string]domain.QuestionBank{
		"sample": {
			ID: "sample",
			Questions: []domain.QuestionDef{
				{
					Text: "What is 1 + 1?",
					Answers: []domain.AnswerDef{
						{Text: "2", Correct: true},
						{Text: "1"},
						{Text: "3"},
					},
				},
				{
					Text: "What is 2 + 2?",
					Answers: []domain.AnswerDef{
						{Text: "5"},
						{Text: "4", Correct: true},
						{Text: "3"},
						{Text: "55"},
						{Text: "15"},
					},
				},
				{
					Text:              "What is a multiple of 5?",
					MultipleSelection: true,
					Answers: []domain.AnswerDef{
						{Text: "10", Correct: true},
						{Text: "20", Correct: true},
						{Text: "30", Correct: true},
						{Text: "24"},
						{Text: "43"},
					},
				},
				{
					Text:              "Which are CalState Campuses?",
					MultipleSelection: true,
					Answers: []domain.AnswerDef{
						{Text: "CalPoly Pomona", Correct: true},
						{Text: "CalPoly Slo", Correct: true},
						{Text: "CalState Fullterton", Correct: true},
						{Text: "USC"},
						{Text: "CalState Chicago"},
						{Text: "CP Pomona"},
					},
				},
			},
		},
	}
}
