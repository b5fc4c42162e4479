// Package store is the identity store gateway: CRUD access to the single
// user-account table, addressed by email or by federated identity.
package store

import (
	"context"
	"errors"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
)

// ErrNotFound is returned by point lookups when no account matches.
var ErrNotFound = errors.New("account not found")

// UserStore is the contract the lifecycle engine depends on. Upserts and
// deletes are atomic per row; there is no multi-row transaction, so batch
// callers must validate the whole batch before writing anything.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (account.Account, error)
	FindByFederatedID(ctx context.Context, id string) (account.Account, error)
	Upsert(ctx context.Context, a account.Account) error
	Delete(ctx context.Context, email string) error
	// ListAll returns every account with admins first, then by email, so
	// listings are deterministic.
	ListAll(ctx context.Context) ([]account.Account, error)
	ListProtectedEmails(ctx context.Context) (map[string]struct{}, error)
}
