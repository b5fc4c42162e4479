package account

import "strings"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account is the single user record held in the remote store, keyed by
// normalized email.
type Account struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
	RecoveryCode string `json:"recovery_code"`
	Role         Role   `json:"role"`
	Active       bool   `json:"active"`
	Confirmed    bool   `json:"confirmed"`
	Protected    bool   `json:"is_protected"`
	FederatedID  string `json:"federated_id,omitempty"`
}

func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// HasCredential reports whether the account finished registration. An empty
// hash means "invited, not yet activated", which login handles separately
// from a wrong password.
func (a Account) HasCredential() bool {
	return a.PasswordHash != ""
}

// NormalizeEmail lowercases and trims an email address. All store lookups
// and session keys go through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail is deliberately loose: the real ownership proof is the
// confirmation token, not the syntax check.
func ValidEmail(email string) bool {
	return strings.Contains(email, "@")
}
