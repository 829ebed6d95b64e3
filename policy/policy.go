package policy

import (
	"fmt"
	"strings"

	"github.com/roleguard/roleguard/core"
)

// Kind is the shape of a policy.
type Kind int

const (
	// Single is a bare role, equivalent to AnyOf with one role.
	Single Kind = iota
	// AnyOf allows callers holding at least one of the roles.
	AnyOf
	// AllOf allows callers holding every role.
	AllOf
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "Single"
	case AnyOf:
		return "AnyOf"
	case AllOf:
		return "AllOf"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Policy is a parsed authorization expression. It is immutable and safe for
// concurrent use.
type Policy struct {
	kind  Kind
	roles []string
}

// Parse compiles an authorization expression such as "ROLE_ADMIN",
// "hasAnyRole(ROLE_ADMIN, ROLE_USER)" or "hasAllRoles(ROLE_ADMIN, ROLE_AUDITOR)".
//
// Method names are case-insensitive and roles are uppercased. Unknown
// methods, empty role lists and roles without the ROLE_ prefix are
// RoleAuthorizationParse errors.
func Parse(expr string) (*Policy, error) {
	p := &parser{input: expr}
	return p.parse()
}

// MustParse is like Parse but panics on error. It is meant for policies
// known at init time.
func MustParse(expr string) *Policy {
	pol, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return pol
}

// Kind returns the policy shape.
func (p *Policy) Kind() Kind {
	return p.kind
}

// Roles returns the required roles in declaration order.
func (p *Policy) Roles() []string {
	out := make([]string, len(p.roles))
	copy(out, p.roles)
	return out
}

// Evaluate decides whether the caller's roles satisfy the policy.
//
// An empty role set is denied with InvalidRoles before any comparison.
// AnyOf and Single allow on the first matching role. AllOf denies on the
// first unmet role in declaration order.
func (p *Policy) Evaluate(roles core.RoleSet) core.Decision {
	if roles.Len() == 0 {
		return core.Deny(core.NewError(core.KindInvalidRoles, core.ErrorCodeNoRoles, "User doesn't have any roles.", nil))
	}

	switch p.kind {
	case AllOf:
		for _, role := range p.roles {
			if !roles.Contains(role) {
				return core.Deny(missingRoles(role, roles))
			}
		}
		return core.Allow()
	default:
		for _, role := range p.roles {
			if roles.Contains(role) {
				return core.Allow()
			}
		}
		return core.Deny(missingRoles(strings.Join(p.roles, ", "), roles))
	}
}

func missingRoles(required string, current core.RoleSet) error {
	return core.Errorf(core.KindInvalidRoles, core.ErrorCodeInsufficientRoles,
		"No required role was found for the current user. Required roles: %s. Current roles: %s",
		required, current.String())
}

// String renders the policy in canonical form.
func (p *Policy) String() string {
	switch p.kind {
	case AnyOf:
		return "hasAnyRole(" + strings.Join(p.roles, ", ") + ")"
	case AllOf:
		return "hasAllRoles(" + strings.Join(p.roles, ", ") + ")"
	default:
		if len(p.roles) == 0 {
			return ""
		}
		return p.roles[0]
	}
}
