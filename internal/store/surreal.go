package store

import (
	"context"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/remote"
)

const usersTable = "users"

// Surreal implements UserStore against the remote SurrealDB users table.
// The email doubles as the record id, which is what gives Upsert its
// insert-or-replace semantics.
type Surreal struct {
	c *remote.Client
}

func NewSurreal(c *remote.Client) *Surreal {
	return &Surreal{c: c}
}

func (s *Surreal) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	return s.findOne("SELECT * FROM type::table($tb) WHERE email = $email",
		map[string]any{"tb": usersTable, "email": account.NormalizeEmail(email)})
}

func (s *Surreal) FindByFederatedID(ctx context.Context, id string) (account.Account, error) {
	if id == "" {
		return account.Account{}, ErrNotFound
	}
	return s.findOne("SELECT * FROM type::table($tb) WHERE federated_id = $id",
		map[string]any{"tb": usersTable, "id": id})
}

func (s *Surreal) findOne(sql string, vars map[string]any) (account.Account, error) {
	var rows []record
	if err := s.c.Query(sql, vars, &rows); err != nil {
		return account.Account{}, err
	}
	if len(rows) == 0 {
		return account.Account{}, ErrNotFound
	}
	return rows[0].toAccount(), nil
}

func (s *Surreal) Upsert(ctx context.Context, a account.Account) error {
	a.Email = account.NormalizeEmail(a.Email)
	return s.c.Exec("UPDATE type::thing($tb, $email) CONTENT $data",
		map[string]any{"tb": usersTable, "email": a.Email, "data": toRecord(a)})
}

func (s *Surreal) Delete(ctx context.Context, email string) error {
	return s.c.Exec("DELETE type::thing($tb, $email)",
		map[string]any{"tb": usersTable, "email": account.NormalizeEmail(email)})
}

func (s *Surreal) ListAll(ctx context.Context) ([]account.Account, error) {
	var rows []record
	// "admin" sorts before "user", so ascending role puts admins first.
	err := s.c.Query("SELECT * FROM type::table($tb) ORDER BY role ASC, email ASC",
		map[string]any{"tb": usersTable}, &rows)
	if err != nil {
		return nil, err
	}
	accounts := make([]account.Account, 0, len(rows))
	for _, r := range rows {
		accounts = append(accounts, r.toAccount())
	}
	return accounts, nil
}

func (s *Surreal) ListProtectedEmails(ctx context.Context) (map[string]struct{}, error) {
	var rows []struct {
		Email string `json:"email"`
	}
	err := s.c.Query("SELECT email FROM type::table($tb) WHERE is_protected = true",
		map[string]any{"tb": usersTable}, &rows)
	if err != nil {
		return nil, err
	}
	emails := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		emails[r.Email] = struct{}{}
	}
	return emails, nil
}
