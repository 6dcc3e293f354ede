package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/config"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/database"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/httpserver"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx := context.Background()
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	st := openStore(ctx, cfg)
	srv := httpserver.New(st, db, cfg)
	log.Info().Str("port", cfg.Port).Msg("starting go-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// openStore keeps games in Redis when REDIS_ADDR is set, else in memory.
func openStore(ctx context.Context, cfg *config.Config) store.Store {
	if cfg.RedisAddr == "" {
		log.Info().Msg("game store: memory")
		return store.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("connect redis")
	}
	log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.GameTTL).Msg("game store: redis")
	return store.NewRedisStore(client, cfg.GameTTL)
}
