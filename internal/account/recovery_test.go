package account

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var recoveryPattern = regexp.MustCompile(`^RCV-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

func TestGenerateRecoveryCode_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateRecoveryCode()
		assert.Regexp(t, recoveryPattern, code)
	}
}

func TestGenerateRecoveryCode_ExcludesAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateRecoveryCode()
		for _, forbidden := range []string{"0", "1", "I", "O"} {
			assert.NotContains(t, strings.TrimPrefix(code, "RCV-"), forbidden)
		}
	}
}

func TestGenerateRecoveryCode_Varies(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		seen[GenerateRecoveryCode()] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}
