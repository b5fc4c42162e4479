package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
)

// Memory is an in-process UserStore used by tests and by demo mode when no
// remote store is configured.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]account.Account
}

func NewMemory() *Memory {
	return &Memory{accounts: make(map[string]account.Account)}
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[account.NormalizeEmail(email)]
	if !ok {
		return account.Account{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) FindByFederatedID(ctx context.Context, id string) (account.Account, error) {
	if id == "" {
		return account.Account{}, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.FederatedID == id {
			return a, nil
		}
	}
	return account.Account{}, ErrNotFound
}

func (m *Memory) Upsert(ctx context.Context, a account.Account) error {
	a.Email = account.NormalizeEmail(a.Email)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.Email] = a
	return nil
}

func (m *Memory) Delete(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, account.NormalizeEmail(email))
	return nil
}

func (m *Memory) ListAll(ctx context.Context) ([]account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]account.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		ai, aj := accounts[i], accounts[j]
		if ai.IsAdmin() != aj.IsAdmin() {
			return ai.IsAdmin()
		}
		return ai.Email < aj.Email
	})
	return accounts, nil
}

func (m *Memory) ListProtectedEmails(ctx context.Context) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emails := make(map[string]struct{})
	for _, a := range m.accounts {
		if a.Protected {
			emails[a.Email] = struct{}{}
		}
	}
	return emails, nil
}
