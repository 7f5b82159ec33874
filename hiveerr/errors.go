// Package hiveerr defines the sentinel and typed errors shared across the
// row store and trigger engine.
package hiveerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers should prefer errors.Is against these over
// string matching; the typed errors below carry the extra context spec
// §7 calls for (bad field, unknown condition, offending query).
var (
	// ErrBadOptValu is raised by trigger rule validation (spec §3's per-cond
	// required/forbidden table).
	ErrBadOptValu = errors.New("hivecore: bad option value")

	// ErrNoSuchIden is raised by rule get/mod/delete against an unknown iden.
	ErrNoSuchIden = errors.New("hivecore: no such iden")

	// ErrNoSuchCond is raised loading a rule with an unrecognized condition.
	ErrNoSuchCond = errors.New("hivecore: no such trigger condition")

	// ErrNoRevAllow is raised when a pending migration requires rev:storage
	// and the option is unset.
	ErrNoRevAllow = errors.New("hivecore: storage revision not allowed")

	// ErrBadCoreStore indicates blob-key index corruption: more than one
	// row came back for a key that must be unique.
	ErrBadCoreStore = errors.New("hivecore: corrupt blob store index")

	// ErrNoSuchName is raised deleting a blob key that does not exist.
	ErrNoSuchName = errors.New("hivecore: no such blob key")

	// ErrRecursionLimitHit is raised when the trigger dispatcher's
	// task-local depth counter would exceed the configured bound.
	ErrRecursionLimitHit = errors.New("hivecore: recursion limit hit")

	// ErrEmptyQuery is raised adding a trigger rule with no storm text.
	ErrEmptyQuery = errors.New("hivecore: empty query")
)

// BadOptValuError names the offending field and reason behind ErrBadOptValu.
type BadOptValuError struct {
	Field  string
	Reason string
}

func (e BadOptValuError) Error() string {
	return fmt.Sprintf("hivecore: bad option value for %s: %s", e.Field, e.Reason)
}

func (e BadOptValuError) Unwrap() error { return ErrBadOptValu }

// NoSuchCondError names the unrecognized condition string.
type NoSuchCondError struct {
	Cond string
}

func (e NoSuchCondError) Error() string {
	return fmt.Sprintf("hivecore: no such trigger condition: %q", e.Cond)
}

func (e NoSuchCondError) Unwrap() error { return ErrNoSuchCond }

// NoRevAllowError names the config option required to proceed.
type NoRevAllowError struct {
	Option string
}

func (e NoRevAllowError) Error() string {
	return fmt.Sprintf("hivecore: add %s=1 to allow storage updates", e.Option)
}

func (e NoRevAllowError) Unwrap() error { return ErrNoRevAllow }

// QueryError wraps a database error with the catalogue query and bound
// arguments that produced it, mirroring the teacher's QueryError shape.
type QueryError struct {
	Query     string
	Args      []any
	Operation string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("hivecore: %s failed: %v (query: %s)", e.Operation, e.Err, e.Query)
}

func (e *QueryError) Unwrap() error { return e.Err }

// WrapQuery wraps a backend error with catalogue/operation context. It
// returns nil if err is nil, so callers can write
// `return hiveerr.WrapQuery(...)` unconditionally.
func WrapQuery(operation, query string, args []any, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Query: query, Args: args, Operation: operation, Err: err}
}
