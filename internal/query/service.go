package query

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/remote"
)

// Row is one result row as returned by the remote procedure.
type Row = map[string]any

// Runner invokes a named remote procedure with a flat parameter map and
// returns the materialized rows.
type Runner interface {
	Run(ctx context.Context, proc string, params map[string]any, limit int) ([]Row, error)
}

// Service ties translation and execution together.
type Service struct {
	runner Runner
	log    zerolog.Logger
}

func NewService(runner Runner, log zerolog.Logger) *Service {
	return &Service{runner: runner, log: log}
}

// Fetch translates the filters for the domain and executes the remote
// call.
func (s *Service) Fetch(ctx context.Context, domain Domain, f Filters) ([]Row, error) {
	proc, params := Translate(domain, f, time.Now())
	s.log.Debug().Str("proc", proc).Int("params", len(params)).Msg("running report query")
	rows, err := s.runner.Run(ctx, proc, params, MaxRows)
	if err != nil {
		s.log.Error().Err(err).Str("proc", proc).Msg("report query failed")
		return nil, err
	}
	s.log.Info().Str("proc", proc).Int("rows", len(rows)).Msg("report query returned")
	return rows, nil
}

// SurrealRunner executes report procedures as SurrealQL functions taking a
// single parameter object.
type SurrealRunner struct {
	c *remote.Client
}

func NewSurrealRunner(c *remote.Client) *SurrealRunner {
	return &SurrealRunner{c: c}
}

func (r *SurrealRunner) Run(ctx context.Context, proc string, params map[string]any, limit int) ([]Row, error) {
	sql := fmt.Sprintf("SELECT * FROM fn::%s($params) LIMIT %d", proc, limit)
	var rows []Row
	if err := r.c.Query(sql, map[string]any{"params": params}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// EmptyRunner backs demo mode: every query succeeds with no rows.
type EmptyRunner struct{}

func (EmptyRunner) Run(ctx context.Context, proc string, params map[string]any, limit int) ([]Row, error) {
	return nil, nil
}
