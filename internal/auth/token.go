package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// confirmAudience is the dedicated signing context for email-confirmation
// tokens, so they cannot be replayed against any other token-consuming
// endpoint.
const confirmAudience = "email-confirm"

// TokenIssuer mints and verifies the time-limited email-confirmation
// tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token encoding the email.
func (t *TokenIssuer) Issue(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		Audience:  jwt.ClaimStrings{confirmAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify checks signature, audience and expiry and returns the embedded
// email. Expired tokens are reported distinctly from malformed ones.
func (t *TokenIssuer) Verify(tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithAudience(confirmAudience), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
