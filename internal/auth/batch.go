package auth

import (
	"context"
	"fmt"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
)

// BatchUpdate reconciles the whole account set against desired. The store
// offers no multi-row transaction, so every rule is checked against the
// full incoming batch before the first row is written:
//
//   - removing or downgrading a protected account rejects the batch;
//   - the desired list must keep at least one active admin (checked once,
//     up front, against the static list);
//   - emails not present yet are created as invitations: fresh recovery
//     code, no credential, unconfirmed.
//
// Existing rows keep their credential, recovery code, confirmation flag and
// federated id; only name, role, active and protected are taken from the
// desired entry. Returns the newly invited accounts so their activation
// codes can be handed out.
func (e *Engine) BatchUpdate(ctx context.Context, desired []account.Account) ([]account.Account, error) {
	current, err := e.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	protected, err := e.users.ListProtectedEmails(ctx)
	if err != nil {
		return nil, err
	}

	currentByEmail := make(map[string]account.Account, len(current))
	for _, a := range current {
		currentByEmail[a.Email] = a
	}

	desiredByEmail := make(map[string]struct{}, len(desired))
	activeAdmins := 0
	for i := range desired {
		desired[i].Email = account.NormalizeEmail(desired[i].Email)
		d := desired[i]
		if d.Email == "" {
			continue
		}
		desiredByEmail[d.Email] = struct{}{}

		_, wasProtected := protected[d.Email]
		// A protected account is always an active admin, whether the flag
		// is already stored or introduced by this very batch.
		if (wasProtected || d.Protected) && (!d.Active || d.Role != account.RoleAdmin) {
			return nil, &AuthorizationError{Msg: fmt.Sprintf("update refused: account %s is protected", d.Email)}
		}
		if d.Role == account.RoleAdmin && d.Active {
			activeAdmins++
		}
	}

	var removals []string
	for _, a := range current {
		if _, keep := desiredByEmail[a.Email]; keep {
			continue
		}
		if _, isProtected := protected[a.Email]; isProtected {
			return nil, &AuthorizationError{Msg: fmt.Sprintf("deletion refused: account %s is protected", a.Email)}
		}
		removals = append(removals, a.Email)
	}

	if activeAdmins < 1 {
		return nil, validationf("operation refused: at least one active administrator must remain")
	}

	// Validation passed for the whole batch; start writing. Row writes are
	// individually atomic but the batch as a whole is not (known gap).
	for _, email := range removals {
		if err := e.users.Delete(ctx, email); err != nil {
			return nil, err
		}
		e.log.Info().Str("email", email).Msg("account removed by batch update")
	}

	var invited []account.Account
	for _, d := range desired {
		if d.Email == "" {
			continue
		}
		existing, exists := currentByEmail[d.Email]
		if exists {
			existing.Name = d.Name
			existing.Role = d.Role
			existing.Active = d.Active
			existing.Protected = d.Protected
			d = existing
		} else {
			d.RecoveryCode = account.GenerateRecoveryCode()
			d.PasswordHash = ""
			d.Confirmed = false
			invited = append(invited, d)
		}
		if err := e.users.Upsert(ctx, d); err != nil {
			return nil, err
		}
	}
	e.log.Info().Int("accounts", len(desired)).Int("removed", len(removals)).Int("invited", len(invited)).Msg("batch account update applied")
	return invited, nil
}
