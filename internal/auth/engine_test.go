package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/store"
)

const testSetupCode = "FIRST-RUN-SECRET"

func newTestEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	users := store.NewMemory()
	tokens := NewTokenIssuer("test-secret", time.Hour)
	return NewEngine(users, tokens, testSetupCode, 4, zerolog.Nop()), users
}

// seedAccount stores a with a credential for "Str0ng!pass" and a fresh
// recovery code.
func seedAccount(t *testing.T, users *store.Memory, a account.Account) account.Account {
	t.Helper()
	hash, err := account.HashPassword("Str0ng!pass", 4)
	require.NoError(t, err)
	a.PasswordHash = hash
	if a.RecoveryCode == "" {
		a.RecoveryCode = account.GenerateRecoveryCode()
	}
	require.NoError(t, users.Upsert(context.Background(), a))
	return a
}

// seedInvited stores an invitation: recovery code only, no credential.
func seedInvited(t *testing.T, users *store.Memory, email string) account.Account {
	t.Helper()
	a := account.Account{
		Email:        email,
		RecoveryCode: account.GenerateRecoveryCode(),
		Role:         account.RoleUser,
		Active:       true,
	}
	require.NoError(t, users.Upsert(context.Background(), a))
	return a
}

func TestInvite(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()

	a, err := e.Invite(ctx, "  New.User@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", a.Email)
	assert.NotEmpty(t, a.RecoveryCode)
	assert.False(t, a.HasCredential())
	assert.False(t, a.Confirmed)
	assert.True(t, a.Active)

	stored, err := users.FindByEmail(ctx, "new.user@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.RecoveryCode, stored.RecoveryCode)
}

func TestInvite_Duplicate(t *testing.T) {
	e, users := newTestEngine(t)
	seedAccount(t, users, account.Account{Email: "dup@example.com", Role: account.RoleUser, Active: true, Confirmed: true})

	_, err := e.Invite(context.Background(), "dup@example.com")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestInvite_BadEmail(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Invite(context.Background(), "not-an-email")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestFirstRunSetup(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	var flow Flow

	// The store is empty, so StartRegistration routes to first-run setup.
	require.NoError(t, e.StartRegistration(ctx, "Boss@Example.com", testSetupCode, &flow))
	assert.True(t, flow.SuperAdminSetup)
	assert.Equal(t, "boss@example.com", flow.RegisterEmail)

	a, err := e.CompleteRegistration(ctx, &flow, "Str0ng!pass", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, account.RoleAdmin, a.Role)
	assert.True(t, a.Protected)
	assert.True(t, a.Confirmed)
	assert.True(t, a.Active)
	assert.NotEmpty(t, a.RecoveryCode)
	assert.Empty(t, flow.RegisterEmail)

	_, err = users.FindByEmail(ctx, "boss@example.com")
	assert.NoError(t, err)
}

func TestFirstRunSetup_WrongCode(t *testing.T) {
	e, _ := newTestEngine(t)
	var flow Flow

	err := e.StartRegistration(context.Background(), "boss@example.com", "wrong", &flow)
	var pe *AuthorizationError
	assert.ErrorAs(t, err, &pe)
	assert.Empty(t, flow.RegisterEmail)
}

func TestFirstRunSetup_NoCodeConfigured(t *testing.T) {
	users := store.NewMemory()
	e := NewEngine(users, NewTokenIssuer("s", time.Hour), "", 4, zerolog.Nop())
	var flow Flow

	err := e.StartRegistration(context.Background(), "boss@example.com", "anything", &flow)
	var ce *ConfigurationError
	assert.ErrorAs(t, err, &ce)
}

func TestRequestRegistration(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	invited := seedInvited(t, users, "invited@example.com")

	var flow Flow
	require.NoError(t, e.StartRegistration(ctx, "invited@example.com", invited.RecoveryCode, &flow))
	assert.Equal(t, "invited@example.com", flow.RegisterEmail)
	assert.False(t, flow.SuperAdminSetup)
}

func TestRequestRegistration_Refusals(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	invited := seedInvited(t, users, "invited@example.com")
	seedAccount(t, users, account.Account{Email: "active@example.com", Role: account.RoleUser, Active: true, Confirmed: true})

	cases := []struct {
		name   string
		email  string
		code   string
		reason Reason
	}{
		{"unknown email", "nobody@example.com", "RCV-AAAA-AAAA", ReasonBadCode},
		{"wrong code", "invited@example.com", "RCV-AAAA-AAAA", ReasonBadCode},
		{"empty code", "invited@example.com", "", ReasonBadCode},
		{"already registered", "active@example.com", invited.RecoveryCode, ReasonHasCredential},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var flow Flow
			err := e.StartRegistration(ctx, tc.email, tc.code, &flow)
			var ae *AuthenticationError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tc.reason, ae.Reason)
			assert.Empty(t, flow.RegisterEmail)
		})
	}
}

func TestCompleteRegistration(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	invited := seedInvited(t, users, "invited@example.com")

	var flow Flow
	require.NoError(t, e.RequestRegistration(ctx, invited.Email, invited.RecoveryCode, &flow))

	a, err := e.CompleteRegistration(ctx, &flow, "Str0ng!pass", "Str0ng!pass")
	require.NoError(t, err)
	assert.True(t, a.HasCredential())
	assert.True(t, a.Confirmed)
	assert.Equal(t, invited.RecoveryCode, a.RecoveryCode)
	assert.Empty(t, flow.RegisterEmail)
}

func TestCompleteRegistration_NoPendingFlow(t *testing.T) {
	e, _ := newTestEngine(t)
	var flow Flow
	_, err := e.CompleteRegistration(context.Background(), &flow, "Str0ng!pass", "Str0ng!pass")
	assert.ErrorIs(t, err, ErrNoPendingFlow)
}

func TestCompleteRegistration_PasswordMismatch(t *testing.T) {
	e, _ := newTestEngine(t)
	flow := Flow{RegisterEmail: "invited@example.com"}
	_, err := e.CompleteRegistration(context.Background(), &flow, "Str0ng!pass", "different")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	// The staged state survives a failed attempt.
	assert.Equal(t, "invited@example.com", flow.RegisterEmail)
}

func TestCompleteRegistration_WeakPasswordListsEveryRule(t *testing.T) {
	e, _ := newTestEngine(t)
	flow := Flow{RegisterEmail: "invited@example.com"}
	_, err := e.CompleteRegistration(context.Background(), &flow, "abc", "abc")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Messages, 4)
}

func TestLogin(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	seedAccount(t, users, account.Account{Email: "user@example.com", Role: account.RoleUser, Active: true, Confirmed: true})

	a, err := e.Login(ctx, " User@Example.com ", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", a.Email)
}

func TestLogin_Refusals(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	seedAccount(t, users, account.Account{Email: "user@example.com", Role: account.RoleUser, Active: true, Confirmed: true})
	seedAccount(t, users, account.Account{Email: "disabled@example.com", Role: account.RoleUser, Active: false, Confirmed: true})
	seedAccount(t, users, account.Account{Email: "pending@example.com", Role: account.RoleUser, Active: true, Confirmed: false})
	seedInvited(t, users, "invited@example.com")

	cases := []struct {
		name     string
		email    string
		password string
		reason   Reason
	}{
		{"unknown email", "nobody@example.com", "Str0ng!pass", ReasonUnknownEmail},
		{"bad password", "user@example.com", "wrong", ReasonBadPassword},
		{"disabled", "disabled@example.com", "Str0ng!pass", ReasonDisabled},
		{"unconfirmed", "pending@example.com", "Str0ng!pass", ReasonUnconfirmed},
		{"no credential yet", "invited@example.com", "Str0ng!pass", ReasonNoCredential},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Login(ctx, tc.email, tc.password)
			var ae *AuthenticationError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tc.reason, ae.Reason)
		})
	}
}

func TestConfirmEmail(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	seedAccount(t, users, account.Account{Email: "pending@example.com", Role: account.RoleUser, Active: true, Confirmed: false})

	tok, err := e.IssueConfirmToken("pending@example.com")
	require.NoError(t, err)
	require.NoError(t, e.ConfirmEmail(ctx, tok))

	a, err := users.FindByEmail(ctx, "pending@example.com")
	require.NoError(t, err)
	assert.True(t, a.Confirmed)
}

func TestResendConfirmation(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	seedAccount(t, users, account.Account{Email: "pending@example.com", Role: account.RoleUser, Active: true, Confirmed: false})
	seedAccount(t, users, account.Account{Email: "done@example.com", Role: account.RoleUser, Active: true, Confirmed: true})

	tok, sent, err := e.ResendConfirmation(ctx, "pending@example.com")
	require.NoError(t, err)
	assert.True(t, sent)
	assert.NotEmpty(t, tok)

	_, sent, err = e.ResendConfirmation(ctx, "done@example.com")
	require.NoError(t, err)
	assert.False(t, sent)

	_, sent, err = e.ResendConfirmation(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestPasswordReset(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	a := seedAccount(t, users, account.Account{Email: "user@example.com", Role: account.RoleUser, Active: true, Confirmed: true})

	var flow Flow
	require.NoError(t, e.RequestPasswordReset(ctx, a.Email, a.RecoveryCode, &flow))
	require.NoError(t, e.CompletePasswordReset(ctx, &flow, "N3w!password", "N3w!password"))
	assert.Empty(t, flow.ResetEmail)

	_, err := e.Login(ctx, a.Email, "N3w!password")
	assert.NoError(t, err)
	_, err = e.Login(ctx, a.Email, "Str0ng!pass")
	assert.Error(t, err)
}

func TestPasswordReset_BadCode(t *testing.T) {
	e, users := newTestEngine(t)
	seedAccount(t, users, account.Account{Email: "user@example.com", Role: account.RoleUser, Active: true, Confirmed: true})

	var flow Flow
	err := e.RequestPasswordReset(context.Background(), "user@example.com", "RCV-AAAA-AAAA", &flow)
	var ae *AuthenticationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ReasonBadCode, ae.Reason)
}

func TestRegenerateRecoveryCode(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	a := seedAccount(t, users, account.Account{Email: "user@example.com", Role: account.RoleUser, Active: true, Confirmed: true})

	code, err := e.RegenerateRecoveryCode(ctx, a.Email)
	require.NoError(t, err)
	assert.NotEqual(t, a.RecoveryCode, code)

	// The old code is dead immediately.
	var flow Flow
	err = e.RequestPasswordReset(ctx, a.Email, a.RecoveryCode, &flow)
	assert.Error(t, err)
	assert.NoError(t, e.RequestPasswordReset(ctx, a.Email, code, &flow))
}

func TestToggleActive(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	seedAccount(t, users, account.Account{Email: "user@example.com", Role: account.RoleUser, Active: true, Confirmed: true})

	a, err := e.ToggleActive(ctx, "user@example.com")
	require.NoError(t, err)
	assert.False(t, a.Active)

	a, err = e.ToggleActive(ctx, "user@example.com")
	require.NoError(t, err)
	assert.True(t, a.Active)
}

func TestToggleActive_ProtectedStaysActive(t *testing.T) {
	e, users := newTestEngine(t)
	seedAccount(t, users, account.Account{Email: "boss@example.com", Role: account.RoleAdmin, Active: true, Confirmed: true, Protected: true})

	_, err := e.ToggleActive(context.Background(), "boss@example.com")
	var pe *AuthorizationError
	assert.ErrorAs(t, err, &pe)
}

func TestDeleteAccount_ProtectedRefused(t *testing.T) {
	e, users := newTestEngine(t)
	ctx := context.Background()
	seedAccount(t, users, account.Account{Email: "boss@example.com", Role: account.RoleAdmin, Active: true, Confirmed: true, Protected: true})
	seedAccount(t, users, account.Account{Email: "user@example.com", Role: account.RoleUser, Active: true, Confirmed: true})

	var pe *AuthorizationError
	assert.ErrorAs(t, e.DeleteAccount(ctx, "boss@example.com"), &pe)
	assert.NoError(t, e.DeleteAccount(ctx, "user@example.com"))

	_, err := users.FindByEmail(ctx, "user@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
