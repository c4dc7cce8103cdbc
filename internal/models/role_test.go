package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Role
	}{
		{name: "admin", input: "Admin", want: RoleAdmin},
		{name: "user", input: "User", want: RoleUser},
		{name: "manager", input: "Manager", want: RoleManager},
		{name: "unknown coerced", input: "SuperAdmin", want: RoleUser},
		{name: "empty coerced", input: "", want: RoleUser},
		{name: "wrong case coerced", input: "admin", want: RoleUser},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseRole(tt.input))
		})
	}
}

func TestRefreshTokenActive(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok := RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, tok.Active(now))

	tok.Revoked = true
	assert.False(t, tok.Active(now))

	expired := RefreshToken{ExpiresAt: now.Add(-time.Second)}
	assert.False(t, expired.Active(now))
}
