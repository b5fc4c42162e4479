package account

import (
	"crypto/rand"
	"fmt"
)

// recoveryAlphabet excludes 0, 1, I and O to avoid transcription mistakes
// when the code is read over the phone.
const recoveryAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const recoveryLength = 8

// GenerateRecoveryCode produces a permanent recovery code in the form
// RCV-XXXX-XXXX. Uniqueness is not checked against the store: with 32^8
// possible codes a collision is tolerable and callers must not rely on a
// hard guarantee.
func GenerateRecoveryCode() string {
	buf := make([]byte, recoveryLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("read random: %v", err))
	}
	code := make([]byte, recoveryLength)
	for i, b := range buf {
		// len(recoveryAlphabet) divides 256, so the modulo is unbiased
		code[i] = recoveryAlphabet[int(b)%len(recoveryAlphabet)]
	}
	return fmt.Sprintf("RCV-%s-%s", code[:recoveryLength/2], code[recoveryLength/2:])
}
