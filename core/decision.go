package core

// Decision is the outcome of an authorization check. It is produced fresh
// for every call and never persisted.
type Decision struct {
	// Allowed is true when the caller may invoke the protected operation.
	Allowed bool

	// Err explains a denial. It is nil when Allowed is true.
	Err error
}

// Allow returns an allowing Decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying Decision carrying the reason.
func Deny(err error) Decision {
	return Decision{Err: err}
}

// Reason returns the denial reason, or an empty string for an allow.
func (d Decision) Reason() string {
	if d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

// Kind returns the failure kind of a denial, or KindUnknown for an allow.
func (d Decision) Kind() Kind {
	if d.Allowed {
		return KindUnknown
	}
	return KindOf(d.Err)
}

// String renders the decision as "Allow" or "Deny(<reason>)".
func (d Decision) String() string {
	if d.Allowed {
		return "Allow"
	}
	return "Deny(" + d.Reason() + ")"
}
