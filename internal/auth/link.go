package auth

import (
	"context"
	"errors"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/store"
)

// FederatedLogin resolves a verified identity-provider subject to a local
// account. Lookup order: by federated id, then by the provider-supplied
// email (which binds the id implicitly). If neither matches, the link goes
// pending in flow and the caller must collect local credentials via
// CompleteLink. The second return is true when the flow is pending.
func (e *Engine) FederatedLogin(ctx context.Context, subject, email string, flow *Flow) (account.Account, bool, error) {
	if subject == "" {
		return account.Account{}, false, ErrTokenInvalid
	}

	a, err := e.users.FindByFederatedID(ctx, subject)
	switch {
	case err == nil:
		// Already linked; re-linking the same subject is a no-op.
		return e.admitFederated(a)
	case !errors.Is(err, store.ErrNotFound):
		return account.Account{}, false, err
	}

	if email != "" {
		a, err = e.users.FindByEmail(ctx, account.NormalizeEmail(email))
		switch {
		case err == nil:
			a.FederatedID = subject
			if err := e.users.Upsert(ctx, a); err != nil {
				return account.Account{}, false, err
			}
			e.log.Info().Str("email", a.Email).Msg("federated identity linked by email")
			return e.admitFederated(a)
		case !errors.Is(err, store.ErrNotFound):
			return account.Account{}, false, err
		}
	}

	flow.PendingFederatedID = subject
	flow.LinkAttempts = 0
	e.log.Info().Str("subject", subject).Msg("federated login needs explicit account link")
	return account.Account{}, true, nil
}

// CompleteLink finishes a pending federated link with local credentials.
// After linkAttemptLimit consecutive failures the pending state is cleared
// and the flow behaves as if no link was ever pending.
func (e *Engine) CompleteLink(ctx context.Context, flow *Flow, email, password string) (account.Account, error) {
	if flow.PendingFederatedID == "" {
		return account.Account{}, ErrNoPendingFlow
	}

	email = account.NormalizeEmail(email)
	a, err := e.users.FindByEmail(ctx, email)
	ok := err == nil && account.CheckPassword(a.PasswordHash, password)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return account.Account{}, err
	}

	if !ok {
		flow.LinkAttempts++
		if flow.LinkAttempts >= linkAttemptLimit {
			e.log.Warn().Str("email", email).Msg("account link aborted: too many failed attempts")
			flow.ClearLink()
			return account.Account{}, &AuthenticationError{Reason: ReasonLinkExhausted}
		}
		e.log.Info().Str("email", email).Int("attempt", flow.LinkAttempts).Msg("account link attempt failed")
		return account.Account{}, &AuthenticationError{Reason: ReasonBadPassword}
	}

	subject := flow.PendingFederatedID
	flow.ClearLink()
	if a.FederatedID != subject {
		a.FederatedID = subject
		if err := e.users.Upsert(ctx, a); err != nil {
			return account.Account{}, err
		}
	}
	e.log.Info().Str("email", a.Email).Msg("federated identity linked")
	return a, nil
}

// admitFederated applies the post-resolution gate shared by both federated
// paths: a disabled account never logs in.
func (e *Engine) admitFederated(a account.Account) (account.Account, bool, error) {
	if !a.Active {
		e.log.Info().Str("email", a.Email).Str("reason", string(ReasonDisabled)).Msg("federated login refused")
		return account.Account{}, false, &AuthenticationError{Reason: ReasonDisabled}
	}
	return a, false, nil
}
