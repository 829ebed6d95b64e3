// Package policy parses and evaluates role authorization expressions.
//
// Three forms are accepted:
//
//	ROLE_ADMIN                              the caller holds ROLE_ADMIN
//	hasAnyRole(ROLE_ADMIN, ROLE_USER)       the caller holds at least one
//	hasAllRoles(ROLE_ADMIN, ROLE_AUDITOR)   the caller holds every role
//
// Parse expressions once, when an operation is registered, and reuse the
// resulting *Policy for every request.
package policy
