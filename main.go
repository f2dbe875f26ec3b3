package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/tictactoe/assets"
	"github.com/robalobadob/tictactoe/internal/actor"
	"github.com/robalobadob/tictactoe/internal/config"
	"github.com/robalobadob/tictactoe/internal/httpserver"
	"github.com/robalobadob/tictactoe/internal/results"
	"github.com/robalobadob/tictactoe/internal/sqlitedb"
	"github.com/robalobadob/tictactoe/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()
	if err := sqlitedb.Migrate(db, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	rs := results.NewStore(db)

	var sessions store.Store
	switch cfg.StoreBackend {
	case config.BackendBolt:
		sessions, err = store.OpenBolt(cfg.BoltPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.BoltPath).Msg("open bolt store")
		}
	case config.BackendMemory:
		sessions = store.NewMemoryStore()
	default:
		sessions = store.NewSQLiteStore(db)
	}
	defer sessions.Close()

	host := actor.NewHost(sessions,
		actor.WithIdleTimeout(cfg.ActorIdleTimeout),
		actor.WithCommitHook(rs.OnCommit),
	)
	srv := httpserver.New(host, httpserver.Options{
		RequestTimeout: cfg.RequestTimeout,
		ClientOrigin:   cfg.ClientOrigin,
		Leaderboard:    rs,
	})

	log.Info().Str("port", cfg.Port).Str("backend", cfg.StoreBackend).Msg("starting tictactoe server")
	if err := srv.Start(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
