package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/starmatch/internal/clock"
	"github.com/robalobadob/starmatch/internal/config"
	"github.com/robalobadob/starmatch/internal/httpserver"
	"github.com/robalobadob/starmatch/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	st := store.NewMemoryStore()
	if cfg.StoreDSN != "" {
		db, err := store.OpenDB(cfg.StoreDSN)
		if err != nil {
			log.Fatal().Err(err).Str("dsn", cfg.StoreDSN).Msg("failed to open game store")
		}
		defer db.Close()
		if st, err = store.NewSQLiteStore(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate game store")
		}
	}

	srv := httpserver.New(httpserver.Options{
		Store:         st,
		Clock:         clock.NewManager(cfg.TickInterval),
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		ClientOrigin:  cfg.ClientOrigin,
		DailySalt:     cfg.DailySalt,
		SecureCookies: cfg.CookieSecure,
	})
	defer srv.Close()

	log.Info().Str("port", cfg.Port).Bool("sqlite", cfg.StoreDSN != "").Msg("starting starmatch server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
