// Package remote owns the process-wide handle to the remote SurrealDB
// service. It is dialed once at startup and treated as immutable for the
// process lifetime; both the identity store and the report runner share it.
package remote

import (
	"encoding/json"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/config"
)

// UnavailableError wraps any failure to reach an external collaborator
// (data store, identity provider). Handlers convert it to a generic
// "service unavailable, try later" response; it is never retried
// automatically.
type UnavailableError struct {
	Service string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

type Client struct {
	db *surrealdb.DB
}

// Dial connects, authenticates and selects the configured namespace and
// database.
func Dial(cfg config.SurrealConfig) (*Client, error) {
	db, err := surrealdb.New(cfg.URL)
	if err != nil {
		return nil, &UnavailableError{Service: "surrealdb", Err: err}
	}
	if _, err := db.Signin(map[string]any{"user": cfg.User, "pass": cfg.Pass}); err != nil {
		db.Close()
		return nil, &UnavailableError{Service: "surrealdb", Err: err}
	}
	if _, err := db.Use(cfg.Namespace, cfg.Database); err != nil {
		db.Close()
		return nil, &UnavailableError{Service: "surrealdb", Err: err}
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() {
	c.db.Close()
}

// Query runs a single SurrealQL statement and decodes the rows of its first
// result block into dest (a pointer to a slice).
func (c *Client) Query(sql string, vars map[string]any, dest any) error {
	raw, err := c.db.Query(sql, vars)
	if err != nil {
		return &UnavailableError{Service: "surrealdb", Err: err}
	}
	rows, err := firstResult(raw)
	if err != nil {
		return err
	}
	return decodeInto(rows, dest)
}

// Exec runs a statement for its side effect only.
func (c *Client) Exec(sql string, vars map[string]any) error {
	if _, err := c.db.Query(sql, vars); err != nil {
		return &UnavailableError{Service: "surrealdb", Err: err}
	}
	return nil
}

// firstResult unwraps the driver's envelope: a query response is a list of
// per-statement blocks, each holding a status and a result list.
func firstResult(raw any) (any, error) {
	blocks, ok := raw.([]any)
	if !ok || len(blocks) == 0 {
		return nil, fmt.Errorf("unexpected query response shape: %T", raw)
	}
	block, ok := blocks[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected query block shape: %T", blocks[0])
	}
	if status, _ := block["status"].(string); status != "" && status != "OK" {
		return nil, fmt.Errorf("query failed with status %s: %v", status, block["detail"])
	}
	return block["result"], nil
}

// decodeInto round-trips through JSON to move the driver's dynamic values
// into a typed destination.
func decodeInto(src, dest any) error {
	if src == nil {
		return nil
	}
	buf, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := json.Unmarshal(buf, dest); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
