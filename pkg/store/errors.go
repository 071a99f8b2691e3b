package store

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for token and dependency operations
var (
	ErrDuplicateToken     = errors.New("token already exists")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenInUse         = errors.New("token is depended on by other tokens")
	ErrCircularDependency = errors.New("circular dependency")
	ErrMissingDependency  = errors.New("missing dependency")
	ErrRuleNotFound       = errors.New("no rule declared for token")
)

// GraphError provides structured error information for registry operations.
type GraphError struct {
	Op      string // Operation that failed (e.g., "AddToken", "AddDependency")
	Token   string // Token name (if applicable)
	Context string // Additional context
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Token != "" {
		if e.Context != "" {
			return fmt.Sprintf("%s %q (%s): %v", e.Op, e.Token, e.Context, e.Cause)
		}
		return fmt.Sprintf("%s %q: %v", e.Op, e.Token, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// CycleError reports a rejected dependency declaration together with the full
// cycle path that declaring it would have created. The path starts and ends
// at the same token, e.g. [--a --b --a].
type CycleError struct {
	Target string   // Token whose rule declaration was rejected
	Path   []string // Cycle path, first and last entries equal
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Path, " -> "))
}

// Unwrap makes the error match ErrCircularDependency via errors.Is.
func (e *CycleError) Unwrap() error {
	return ErrCircularDependency
}

// Convenience constructors for common error patterns

// TokenNotFoundError creates a not found error for the given operation.
func TokenNotFoundError(op, name string) error {
	return &GraphError{Op: op, Token: name, Cause: ErrTokenNotFound}
}

// DuplicateTokenError creates a duplicate token error.
func DuplicateTokenError(name string) error {
	return &GraphError{Op: "AddToken", Token: name, Cause: ErrDuplicateToken}
}

// TokenInUseError creates an in-use error listing the blocking dependents.
func TokenInUseError(name string, dependents []string) error {
	return &GraphError{
		Op:      "RemoveToken",
		Token:   name,
		Context: fmt.Sprintf("required by %s", strings.Join(dependents, ", ")),
		Cause:   ErrTokenInUse,
	}
}

// IsNotFound returns true if the error is a token not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTokenNotFound)
}

// IsCycle returns true if the error reports a circular dependency.
func IsCycle(err error) bool {
	return errors.Is(err, ErrCircularDependency)
}

// CyclePath extracts the cycle path from an error, if it carries one.
func CyclePath(err error) ([]string, bool) {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Path, true
	}
	return nil, false
}
