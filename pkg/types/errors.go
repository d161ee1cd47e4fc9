package types

import (
	"errors"
	"fmt"
)

// Argument errors.
var (
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidData = errors.New("invalid entity data")
	ErrStoreClosed = errors.New("store is closed")
)

// Error kinds reported by StoreError. errors.Is(err, ErrConstraint) holds
// for any *StoreError of kind KindConstraint, and likewise for the others.
var (
	ErrInitialization = errors.New("store initialization failed")
	ErrConstraint     = errors.New("constraint violation")
	ErrStorage        = errors.New("storage failure")
)

// ErrorKind classifies a store failure.
type ErrorKind int

const (
	// KindStorage covers I/O errors, corrupt rows and any failure that is
	// not classified more precisely.
	KindStorage ErrorKind = iota
	// KindInit means the schema could not be created or migrated.
	KindInit
	// KindConstraint means a write violated a key or foreign-key constraint;
	// the transaction was rolled back.
	KindConstraint
)

func (k ErrorKind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindConstraint:
		return "constraint"
	default:
		return "storage"
	}
}

// StoreError is the uniform error returned across the ProjectStore
// boundary. Op names the facade operation, e.g. "save project".
type StoreError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrInitialization:
		return e.Kind == KindInit
	case ErrConstraint:
		return e.Kind == KindConstraint
	case ErrStorage:
		return e.Kind == KindStorage
	}
	return false
}
