package service

import "fmt"

// The workflow distinguishes failure kinds so callers always learn the exact
// unmet condition. Everything except InvariantViolation is a recoverable,
// user-correctable outcome.

// ValidationError is malformed input: negative quantities, missing
// coordinates, unknown target role, missing categories at approval.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// PreconditionError is a workflow gate that is not satisfied yet, e.g. a
// blank estimate or an empty proposed asset set.
type PreconditionError struct {
	Condition string
}

func (e *PreconditionError) Error() string {
	return e.Condition
}

// AuthorizationError means the actor is not the current holder or lacks the
// role the attempted action requires.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// ConflictError means the file's state changed under a concurrent transition
// between the caller's read and this write.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// InvariantViolation is a transactional bug, never a user mistake. It aborts
// the enclosing transaction and is logged for operator attention.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return e.Detail
}

// Principal is the acting identity the JWT middleware extracted. The
// workflow trusts it; authentication happened upstream.
type Principal struct {
	UserID string
	Role   string
}
