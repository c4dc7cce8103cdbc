package policy

import (
	"fmt"

	"github.com/Skotchmaster/auth_service/internal/models"
)

const (
	AdminOnly   = "AdminOnly"
	UserOrAdmin = "UserOrAdmin"
	ManagerOnly = "ManagerOnly"
)

// Evaluator answers "may this role perform operations gated by this policy".
// The table is fixed at process start and only ever read afterwards; there is
// nothing to look up in the record store.
type Evaluator struct {
	policies map[string]map[models.Role]struct{}
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		policies: map[string]map[models.Role]struct{}{
			AdminOnly:   roleSet(models.RoleAdmin),
			UserOrAdmin: roleSet(models.RoleUser, models.RoleAdmin),
			ManagerOnly: roleSet(models.RoleManager),
		},
	}
}

func roleSet(roles ...models.Role) map[models.Role]struct{} {
	set := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Allows is a pure membership test. An unknown policy denies everyone; use
// MustPolicy at wiring time to catch misnamed policies before serving.
func (e *Evaluator) Allows(policyName string, role models.Role) bool {
	set, ok := e.policies[policyName]
	if !ok {
		return false
	}
	_, ok = set[role]
	return ok
}

// MustPolicy panics on an unregistered policy name. Route registration goes
// through it, so a typo kills the process at startup instead of silently
// denying requests.
func (e *Evaluator) MustPolicy(policyName string) string {
	if _, ok := e.policies[policyName]; !ok {
		panic(fmt.Sprintf("policy: unknown policy %q", policyName))
	}
	return policyName
}
