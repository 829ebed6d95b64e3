package policy

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roleguard/roleguard/core"
)

// parser is a recursive-descent parser over
//
//	expr      := method "(" role_list ")" | role
//	role_list := role ("," role)*
//	role      := "ROLE_" WORD
type parser struct {
	input string
	pos   int
}

func (p *parser) parse() (*Policy, error) {
	p.skipSpace()
	start := p.pos
	word := p.word()
	if word == "" {
		return nil, p.errorf("expected a role or an authorization method")
	}

	p.skipSpace()
	if p.peek() != '(' {
		role, err := p.role(word, start)
		if err != nil {
			return nil, err
		}
		if err := p.end(); err != nil {
			return nil, err
		}
		return &Policy{kind: Single, roles: []string{role}}, nil
	}

	var kind Kind
	switch strings.ToLower(word) {
	case "hasanyrole":
		kind = AnyOf
	case "hasallroles":
		kind = AllOf
	default:
		return nil, core.Errorf(core.KindRoleAuthorizationParse, core.ErrorCodePolicyInvalid,
			"invalid role authorization method %q", word)
	}
	p.pos++ // (

	roles, err := p.roleList()
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return &Policy{kind: kind, roles: roles}, nil
}

func (p *parser) roleList() ([]string, error) {
	p.skipSpace()
	if p.peek() == ')' {
		return nil, p.errorf("authorization method requires at least one role")
	}

	var roles []string
	for {
		p.skipSpace()
		start := p.pos
		role, err := p.role(p.word(), start)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return roles, nil
		case 0:
			return nil, p.errorf("missing closing parenthesis")
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

// role uppercases word and checks it has the ROLE_ prefix and a name.
func (p *parser) role(word string, start int) (string, error) {
	role := strings.ToUpper(word)
	if !strings.HasPrefix(role, core.RolePrefix) || len(role) == len(core.RolePrefix) {
		if word == "" {
			return "", p.errorf("expected a role")
		}
		return "", core.Errorf(core.KindRoleAuthorizationParse, core.ErrorCodePolicyInvalid,
			"invalid role %q at position %d: roles must look like ROLE_NAME", word, start)
	}
	return role, nil
}

func (p *parser) end() error {
	p.skipSpace()
	if p.pos != len(p.input) {
		return p.errorf("unexpected trailing input")
	}
	return nil
}

// word consumes a run of letters, digits and underscores.
func (p *parser) word() string {
	start := p.pos
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos += size
	}
	return p.input[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return core.Errorf(core.KindRoleAuthorizationParse, core.ErrorCodePolicyInvalid,
		"%s at position %d in %q", msg, p.pos, p.input)
}
