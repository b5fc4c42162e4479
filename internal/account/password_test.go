package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword_Accepted(t *testing.T) {
	for _, pw := range []string{"Str0ng!pass", "Abcdef1!", "xY9?zzzzzz"} {
		assert.Empty(t, ValidatePassword(pw), "password %q", pw)
	}
}

func TestValidatePassword_ReportsEveryViolation(t *testing.T) {
	// Too short, no upper case, no digit, no symbol: four rules broken at
	// once, four messages back.
	violations := ValidatePassword("abc")
	assert.Len(t, violations, 4)
}

func TestValidatePassword_SingleViolation(t *testing.T) {
	violations := ValidatePassword("Abcdefg1")
	assert.Len(t, violations, 1)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass", 4)
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "Str0ng!pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestCheckPassword_EmptyHashNeverMatches(t *testing.T) {
	assert.False(t, CheckPassword("", ""))
	assert.False(t, CheckPassword("", "anything"))
}
