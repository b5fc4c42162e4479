package store

import (
	"bytes"
	"fmt"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
)

// boolish accepts the boolean encodings that have historically ended up in
// the users table: true/false, 0/1 and their string forms. Coercion happens
// here, at the store boundary, and nowhere else.
type boolish bool

func (b *boolish) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("1")),
		bytes.Equal(data, []byte(`"true"`)), bytes.Equal(data, []byte(`"1"`)):
		*b = true
	case bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("0")),
		bytes.Equal(data, []byte("null")),
		bytes.Equal(data, []byte(`"false"`)), bytes.Equal(data, []byte(`"0"`)), bytes.Equal(data, []byte(`""`)):
		*b = false
	default:
		return fmt.Errorf("cannot coerce %s to bool", data)
	}
	return nil
}

// record is the wire form of an account row. Writing through this type
// guarantees canonical booleans are persisted.
type record struct {
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	PasswordHash string  `json:"password_hash"`
	RecoveryCode string  `json:"recovery_code"`
	Role         string  `json:"role"`
	Active       boolish `json:"active"`
	Confirmed    boolish `json:"confirmed"`
	Protected    boolish `json:"is_protected"`
	FederatedID  string  `json:"federated_id,omitempty"`
}

func toRecord(a account.Account) record {
	return record{
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		RecoveryCode: a.RecoveryCode,
		Role:         string(a.Role),
		Active:       boolish(a.Active),
		Confirmed:    boolish(a.Confirmed),
		Protected:    boolish(a.Protected),
		FederatedID:  a.FederatedID,
	}
}

func (r record) toAccount() account.Account {
	role := account.Role(r.Role)
	if role == "" {
		role = account.RoleUser
	}
	return account.Account{
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		RecoveryCode: r.RecoveryCode,
		Role:         role,
		Active:       bool(r.Active),
		Confirmed:    bool(r.Confirmed),
		Protected:    bool(r.Protected),
		FederatedID:  r.FederatedID,
	}
}
