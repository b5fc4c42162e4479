package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/audit"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/auth"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/config"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/docs"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/federation"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/query"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/remote"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/router"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/session"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/store"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)

	// An empty remote URL switches the portal to demo mode: an in-process
	// account store and report queries that always return no rows.
	var users store.UserStore
	var runner query.Runner
	if cfg.Surreal.URL == "" {
		log.Warn().Msg("no remote store configured, running in demo mode")
		users = store.NewMemory()
		runner = query.EmptyRunner{}
	} else {
		client, err := remote.Dial(cfg.Surreal)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to remote store")
		}
		defer client.Close()
		users = store.NewSurreal(client)
		runner = query.NewSurrealRunner(client)
	}

	auditDB, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open audit trail")
	}

	docsStore, err := docs.NewStore(context.Background(), cfg.Docs)
	if err != nil {
		log.Fatal().Err(err).Msg("init documentation store")
	}
	if docsStore == nil {
		log.Info().Msg("documentation module disabled, no bucket configured")
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.ConfirmSecret, time.Duration(cfg.Auth.ConfirmTTLMinutes)*time.Minute)
	engine := auth.NewEngine(users, tokens, cfg.Auth.SetupCode, cfg.Auth.BcryptCost, log)

	sessions := session.NewManager(time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute)
	go func() {
		for range time.Tick(time.Minute) {
			sessions.Prune()
		}
	}()

	r := router.Setup(router.Deps{
		Config:    cfg,
		Engine:    engine,
		Sessions:  sessions,
		Users:     users,
		Providers: federation.NewSet(cfg.OAuth),
		Reports:   query.NewService(runner, log),
		Docs:      docsStore,
		AuditDB:   auditDB,
		Log:       log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server listening")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("run server")
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	var out = zerolog.New(os.Stdout)
	if cfg.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return out.Level(level).With().Timestamp().Logger()
}
