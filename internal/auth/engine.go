// Package auth implements the account lifecycle engine: the state machine
// governing invitation, confirmation, activation, password reset and
// federated-identity linking.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/store"
)

// linkAttemptLimit bounds the local-credential attempts allowed to complete
// a pending federated link before the whole flow is aborted.
const linkAttemptLimit = 5

type Engine struct {
	users      store.UserStore
	tokens     *TokenIssuer
	setupCode  string
	bcryptCost int
	log        zerolog.Logger
}

func NewEngine(users store.UserStore, tokens *TokenIssuer, setupCode string, bcryptCost int, log zerolog.Logger) *Engine {
	return &Engine{
		users:      users,
		tokens:     tokens,
		setupCode:  setupCode,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

// Invite creates a not-yet-activated account for email: no credential, a
// fresh recovery code the admin hands to the invitee, unconfirmed.
func (e *Engine) Invite(ctx context.Context, email string) (account.Account, error) {
	email = account.NormalizeEmail(email)
	if !account.ValidEmail(email) {
		return account.Account{}, validationf("please provide a valid email address")
	}
	if _, err := e.users.FindByEmail(ctx, email); err == nil {
		return account.Account{}, validationf("an account for %s already exists", email)
	} else if !errors.Is(err, store.ErrNotFound) {
		return account.Account{}, err
	}

	a := account.Account{
		Email:        email,
		Name:         strings.SplitN(email, "@", 2)[0],
		RecoveryCode: account.GenerateRecoveryCode(),
		Role:         account.RoleUser,
		Active:       true,
		Confirmed:    false,
	}
	if err := e.users.Upsert(ctx, a); err != nil {
		return account.Account{}, err
	}
	e.log.Info().Str("email", email).Msg("account invited")
	return a, nil
}

// StartRegistration is step one of registration. On an empty store it runs
// the one-time super-admin setup; otherwise it validates the invitee's
// activation code. On success the staged identity is recorded in flow,
// to be finalized by CompleteRegistration.
func (e *Engine) StartRegistration(ctx context.Context, email, code string, flow *Flow) error {
	all, err := e.users.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return e.FirstRunSetup(ctx, email, code, flow)
	}
	return e.RequestRegistration(ctx, email, code, flow)
}

// FirstRunSetup stages the creation of the initial protected super-admin.
// Only valid while the account store is empty.
func (e *Engine) FirstRunSetup(ctx context.Context, email, code string, flow *Flow) error {
	email = account.NormalizeEmail(email)
	if e.setupCode == "" {
		// Without a configured setup secret the first account can never be
		// created through the public surface.
		return &ConfigurationError{Msg: "setup code is not configured"}
	}
	if code != e.setupCode {
		e.log.Warn().Str("email", email).Msg("first-run setup refused: code mismatch")
		return &AuthorizationError{Msg: "the activation code is invalid"}
	}
	flow.RegisterEmail = email
	flow.SuperAdminSetup = true
	return nil
}

// RequestRegistration validates an invited user's email + activation code
// pair. An account that already holds a credential is signaled distinctly
// so the caller can suggest logging in instead.
func (e *Engine) RequestRegistration(ctx context.Context, email, code string, flow *Flow) error {
	email = account.NormalizeEmail(email)
	a, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.log.Info().Str("email", email).Str("reason", string(ReasonUnknownEmail)).Msg("registration refused")
			return &AuthenticationError{Reason: ReasonBadCode}
		}
		return err
	}
	if a.HasCredential() {
		e.log.Info().Str("email", email).Str("reason", string(ReasonHasCredential)).Msg("registration refused")
		return &AuthenticationError{Reason: ReasonHasCredential}
	}
	if code == "" || a.RecoveryCode != code {
		e.log.Info().Str("email", email).Str("reason", string(ReasonBadCode)).Msg("registration refused")
		return &AuthenticationError{Reason: ReasonBadCode}
	}
	flow.RegisterEmail = email
	return nil
}

// CompleteRegistration is step two: it sets the credential for the staged
// identity. For a staged super-admin it creates the protected account; for
// a normal registration it activates the existing one. The staged state is
// single-use and cleared on success.
func (e *Engine) CompleteRegistration(ctx context.Context, flow *Flow, password, confirm string) (account.Account, error) {
	if flow.RegisterEmail == "" {
		return account.Account{}, ErrNoPendingFlow
	}
	if err := checkNewPassword(password, confirm); err != nil {
		return account.Account{}, err
	}
	hash, err := account.HashPassword(password, e.bcryptCost)
	if err != nil {
		return account.Account{}, fmt.Errorf("hash password: %w", err)
	}

	var a account.Account
	if flow.SuperAdminSetup {
		a = account.Account{
			Email:        flow.RegisterEmail,
			Name:         "Super Administrator",
			PasswordHash: hash,
			RecoveryCode: account.GenerateRecoveryCode(),
			Role:         account.RoleAdmin,
			Active:       true,
			Confirmed:    true,
			Protected:    true,
		}
	} else {
		a, err = e.users.FindByEmail(ctx, flow.RegisterEmail)
		if err != nil {
			return account.Account{}, fmt.Errorf("staged account vanished: %w", err)
		}
		a.PasswordHash = hash
		a.Confirmed = true
	}
	if err := e.users.Upsert(ctx, a); err != nil {
		return account.Account{}, err
	}
	e.log.Info().Str("email", a.Email).Bool("super_admin", flow.SuperAdminSetup).Msg("registration completed")
	flow.ClearRegistration()
	return a, nil
}

// Login runs the sequential credential checks. Each refusal carries a
// distinct reason for the log; the HTTP layer is responsible for collapsing
// the enumeration-sensitive ones into a generic message.
func (e *Engine) Login(ctx context.Context, email, password string) (account.Account, error) {
	email = account.NormalizeEmail(email)
	a, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return account.Account{}, e.refuseLogin(email, ReasonUnknownEmail)
		}
		return account.Account{}, err
	}
	if !a.HasCredential() {
		return account.Account{}, e.refuseLogin(email, ReasonNoCredential)
	}
	if !account.CheckPassword(a.PasswordHash, password) {
		return account.Account{}, e.refuseLogin(email, ReasonBadPassword)
	}
	if !a.Active {
		return account.Account{}, e.refuseLogin(email, ReasonDisabled)
	}
	if !a.Confirmed {
		return account.Account{}, e.refuseLogin(email, ReasonUnconfirmed)
	}
	e.log.Info().Str("email", email).Msg("login succeeded")
	return a, nil
}

func (e *Engine) refuseLogin(email string, reason Reason) error {
	e.log.Info().Str("email", email).Str("reason", string(reason)).Msg("login refused")
	return &AuthenticationError{Reason: reason}
}

// IssueConfirmToken mints a confirmation token for email. Delivery is the
// caller's concern.
func (e *Engine) IssueConfirmToken(email string) (string, error) {
	return e.tokens.Issue(account.NormalizeEmail(email))
}

// ConfirmEmail validates a confirmation token and marks the encoded account
// as confirmed.
func (e *Engine) ConfirmEmail(ctx context.Context, token string) error {
	email, err := e.tokens.Verify(token)
	if err != nil {
		return err
	}
	a, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	a.Confirmed = true
	if err := e.users.Upsert(ctx, a); err != nil {
		return err
	}
	e.log.Info().Str("email", email).Msg("email confirmed")
	return nil
}

// ResendConfirmation re-issues a token for an unconfirmed account. The
// (false, nil) return means "nothing to send"; callers must answer
// identically either way to avoid account enumeration.
func (e *Engine) ResendConfirmation(ctx context.Context, email string) (string, bool, error) {
	a, err := e.users.FindByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if a.Confirmed {
		return "", false, nil
	}
	token, err := e.tokens.Issue(a.Email)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// RequestPasswordReset validates the permanent recovery code and stages a
// reset. Failure is a single generic refusal: no enumeration signal.
func (e *Engine) RequestPasswordReset(ctx context.Context, email, code string, flow *Flow) error {
	email = account.NormalizeEmail(email)
	a, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.log.Info().Str("email", email).Str("reason", string(ReasonUnknownEmail)).Msg("password reset refused")
			return &AuthenticationError{Reason: ReasonBadCode}
		}
		return err
	}
	if code == "" || a.RecoveryCode != code {
		e.log.Info().Str("email", email).Str("reason", string(ReasonBadCode)).Msg("password reset refused")
		return &AuthenticationError{Reason: ReasonBadCode}
	}
	flow.ResetEmail = email
	return nil
}

// CompletePasswordReset replaces the credential of the staged account and
// clears the staged reference.
func (e *Engine) CompletePasswordReset(ctx context.Context, flow *Flow, password, confirm string) error {
	if flow.ResetEmail == "" {
		return ErrNoPendingFlow
	}
	if err := checkNewPassword(password, confirm); err != nil {
		return err
	}
	a, err := e.users.FindByEmail(ctx, flow.ResetEmail)
	if err != nil {
		return err
	}
	hash, err := account.HashPassword(password, e.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = hash
	if err := e.users.Upsert(ctx, a); err != nil {
		return err
	}
	e.log.Info().Str("email", a.Email).Msg("password reset completed")
	flow.ClearReset()
	return nil
}

// RegenerateRecoveryCode replaces the recovery code and returns the new
// one. The code is displayed exactly once by the caller.
func (e *Engine) RegenerateRecoveryCode(ctx context.Context, email string) (string, error) {
	a, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	a.RecoveryCode = account.GenerateRecoveryCode()
	if err := e.users.Upsert(ctx, a); err != nil {
		return "", err
	}
	e.log.Info().Str("email", a.Email).Msg("recovery code regenerated")
	return a.RecoveryCode, nil
}

// ToggleActive flips the administrative kill switch on a single account.
// A protected account must stay active.
func (e *Engine) ToggleActive(ctx context.Context, email string) (account.Account, error) {
	a, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return account.Account{}, err
	}
	if a.Protected && a.Active {
		return account.Account{}, &AuthorizationError{Msg: fmt.Sprintf("refused: account %s is protected", a.Email)}
	}
	a.Active = !a.Active
	if err := e.users.Upsert(ctx, a); err != nil {
		return account.Account{}, err
	}
	e.log.Info().Str("email", a.Email).Bool("active", a.Active).Msg("account status toggled")
	return a, nil
}

// DeleteAccount removes a single account. Protected accounts cannot be
// deleted.
func (e *Engine) DeleteAccount(ctx context.Context, email string) error {
	a, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if a.Protected {
		return &AuthorizationError{Msg: fmt.Sprintf("refused: account %s is protected", a.Email)}
	}
	if err := e.users.Delete(ctx, a.Email); err != nil {
		return err
	}
	e.log.Info().Str("email", a.Email).Msg("account deleted")
	return nil
}

// checkNewPassword applies the shared rules of both credential-setting
// flows: matching confirmation, then the full complexity policy with every
// violation reported.
func checkNewPassword(password, confirm string) error {
	if password != confirm {
		return validationf("the passwords do not match")
	}
	if violations := account.ValidatePassword(password); len(violations) > 0 {
		return &ValidationError{Messages: violations}
	}
	return nil
}
