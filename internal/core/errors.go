package core

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	// ErrStorage means persistence is unreachable or corrupt.
	ErrStorage = errors.New("storage error")

	// ErrRetrieval means a store read failed while scoring memories.
	ErrRetrieval = errors.New("retrieval error")

	// ErrProvider means the embedding or generation backend failed.
	ErrProvider = errors.New("provider error")

	ErrNotFound        = errors.New("not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrIdentityMissing = errors.New("identity file missing or unreadable")
)

// OpError attaches the failing operation and its kind to an underlying error.
//
//	err := StorageError("StartSession", sqlErr)
//	errors.Is(err, ErrStorage) // true
//	err.Error()                // "StartSession: storage error: <sqlErr>"
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newOpError(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Kind: kind, Err: err}
}

// StorageError wraps err as ErrStorage. Returns nil for a nil err.
func StorageError(op string, err error) error {
	return newOpError(op, ErrStorage, err)
}

// RetrievalError wraps err as ErrRetrieval. Returns nil for a nil err.
func RetrievalError(op string, err error) error {
	return newOpError(op, ErrRetrieval, err)
}

// ProviderError wraps err as ErrProvider. Returns nil for a nil err.
func ProviderError(op string, err error) error {
	return newOpError(op, ErrProvider, err)
}
