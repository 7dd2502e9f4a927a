package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("secret124", hash))
	assert.False(t, CheckPassword("secret123", "not-a-hash"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		attrs    []string
		contains string
	}{
		{"too short", "a1b2", nil, "too short"},
		{"common", "password123", nil, "too common"},
		{"numeric", "9876543210", nil, "entirely numeric"},
		{"similar to username", "alice123", []string{"alice"}, "too similar"},
		{"similar to email part", "example1", []string{"jdoe@example.com"}, "too similar"},
		{"similar to last name", "liddell99", []string{"Liddell"}, "too similar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidatePasswordStrength(tt.password, tt.attrs...)
			require.NotEmpty(t, problems)
			assert.Contains(t, strings.Join(problems, " "), tt.contains)
		})
	}
}

func TestValidatePasswordStrength_Strong(t *testing.T) {
	problems := ValidatePasswordStrength("Tr0ub4dor&3x", "alice", "alice@example.com", "Alice", "Liddell")
	assert.Empty(t, problems)
}

func TestValidatePasswordStrength_LooseResemblanceAllowed(t *testing.T) {
	tests := []struct {
		name     string
		password string
		attrs    []string
	}{
		{"username with suffix", "alice2024x", []string{"alice", "alice@example.com"}},
		{"short first name inside", "annabelle99", []string{"annb", "annb@example.com", "Ann", "Lee"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ValidatePasswordStrength(tt.password, tt.attrs...))
		})
	}
}

func TestQuickRatio(t *testing.T) {
	assert.InDelta(t, 1.0, quickRatio("abc", "cba"), 0.001)
	assert.InDelta(t, 10.0/13.0, quickRatio("alice123", "alice"), 0.001)
	assert.InDelta(t, 0.0, quickRatio("xyz", "abc"), 0.001)
}
