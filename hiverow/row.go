// Package hiverow defines the dual-typed row tuple and the small value-kind
// enum the query catalogue dispatches on.
package hiverow

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Iden is the opaque 16-byte identifier of an owning entity.
type Iden [16]byte

// NewIden returns a fresh random Iden, used for rule identity and as a
// convenience for callers minting entity idens in tests. Generated via
// uuid.New() purely for its 16 random bytes — the result is stored and
// compared as an opaque Iden, never parsed back as a UUID.
func NewIden() Iden {
	return Iden(uuid.New())
}

// String hex-encodes the iden, matching the storage representation.
func (i Iden) String() string {
	return hex.EncodeToString(i[:])
}

// IdenFromHex decodes a hex-encoded iden string back into an Iden.
func IdenFromHex(s string) (Iden, error) {
	var i Iden
	b, err := hex.DecodeString(s)
	if err != nil {
		return i, fmt.Errorf("hiverow: bad iden hex %q: %w", s, err)
	}
	if len(b) != len(i) {
		return i, fmt.Errorf("hiverow: iden must be %d bytes, got %d", len(i), len(b))
	}
	copy(i[:], b)
	return i, nil
}

// Kind is the runtime type of a row value: absent, integer, or string.
// The trigger-free dispatch matrix in hivequery is keyed on a [3]Kind.
type Kind int

const (
	// KindNone marks an unset selector (no value/mintime/maxtime bound).
	KindNone Kind = iota
	KindInt
	KindStr
)

// KindOf classifies a runtime value the way the store's physical schema
// does: exactly one of intval/strval is populated per row.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNone
	case int, int8, int16, int32, int64:
		return KindInt
	case string:
		return KindStr
	default:
		return KindNone
	}
}

// AsInt64 normalizes any of the signed integer kinds KindOf recognizes to
// int64. It panics if v is not an integer kind; callers must check KindOf
// first exactly as the teacher's dialect/schema code checks types before
// binding.
func AsInt64(v any) int64 {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	default:
		panic(fmt.Sprintf("hiverow: value %v (%T) is not an integer", v, v))
	}
}

// Row is the folded (iden, prop, value, tstamp) tuple returned to callers.
// Value holds either an int64 or a string — never both, never neither.
type Row struct {
	Iden   Iden
	Prop   string
	Value  any
	Tstamp int64
}

// BlobRow is a single (k, v) pair from the keyed opaque-bytes store.
type BlobRow struct {
	Key   string
	Value []byte
}

// Fold collapses a 5-tuple as stored physically — (iden, prop, intval,
// strval, tstamp) with exactly one of intval/strval non-nil — into the
// 4-tuple Row the public API returns.
func Fold(iden Iden, prop string, intval *int64, strval *string, tstamp int64) Row {
	if intval != nil {
		return Row{Iden: iden, Prop: prop, Value: *intval, Tstamp: tstamp}
	}
	var v string
	if strval != nil {
		v = *strval
	}
	return Row{Iden: iden, Prop: prop, Value: v, Tstamp: tstamp}
}
