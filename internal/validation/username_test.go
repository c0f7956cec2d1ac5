package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "alice", false},
		{"valid with digits", "bob42", false},
		{"valid with underscore", "carol_dev", false},
		{"valid minimum length", "abc", false},
		{"valid maximum length", strings.Repeat("a", 32), false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 33), true},
		{"spaces", "alice smith", true},
		{"dash", "alice-smith", true},
		{"unicode", "алиса", true},
		{"path traversal", "../alice", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassphrase(t *testing.T) {
	assert.Error(t, ValidatePassphrase(""))
	assert.Error(t, ValidatePassphrase("short"))
	assert.NoError(t, ValidatePassphrase("long enough passphrase"))
}
