package account

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// passwordSymbols is the punctuation set accepted by the complexity policy.
const passwordSymbols = "!@#$%^&*(),.?:{}|<>"

// ValidatePassword runs every complexity check and returns all failing
// messages, not just the first one, so the caller can surface the complete
// list at once.
func ValidatePassword(password string) []string {
	var violations []string
	if len(password) < 8 {
		violations = append(violations, "must contain at least 8 characters")
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}
	if !hasLower {
		violations = append(violations, "must contain at least one lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "must contain at least one uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "must contain at least one digit")
	}
	if !hasSymbol {
		violations = append(violations, "must contain at least one special character")
	}
	return violations
}

// HashPassword hashes a password with bcrypt at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
// An empty stored hash never matches.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
