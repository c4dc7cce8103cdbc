package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/internal/models"
)

func TestEvaluator_Allows(t *testing.T) {
	t.Parallel()

	e := NewEvaluator()

	tests := []struct {
		name   string
		policy string
		role   models.Role
		want   bool
	}{
		{name: "admin on AdminOnly", policy: AdminOnly, role: models.RoleAdmin, want: true},
		{name: "user on AdminOnly", policy: AdminOnly, role: models.RoleUser, want: false},
		{name: "manager on AdminOnly", policy: AdminOnly, role: models.RoleManager, want: false},
		{name: "user on UserOrAdmin", policy: UserOrAdmin, role: models.RoleUser, want: true},
		{name: "admin on UserOrAdmin", policy: UserOrAdmin, role: models.RoleAdmin, want: true},
		{name: "manager on UserOrAdmin", policy: UserOrAdmin, role: models.RoleManager, want: false},
		{name: "manager on ManagerOnly", policy: ManagerOnly, role: models.RoleManager, want: true},
		{name: "admin on ManagerOnly", policy: ManagerOnly, role: models.RoleAdmin, want: false},
		{name: "unknown policy denies", policy: "SuperSecret", role: models.RoleAdmin, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, e.Allows(tt.policy, tt.role))
		})
	}
}

func TestEvaluator_MustPolicy(t *testing.T) {
	t.Parallel()

	e := NewEvaluator()
	require.Equal(t, AdminOnly, e.MustPolicy(AdminOnly))
	require.Panics(t, func() { e.MustPolicy("NoSuchPolicy") })
}
