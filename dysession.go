package dysession

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTableNotFound the named table is not present in the region
	ErrTableNotFound = errors.New("table not found")

	// ErrItemNotFound no item stored under the session key
	ErrItemNotFound = errors.New("item not found in table")

	// ErrKeyDuplicated an item already exists under the session key
	ErrKeyDuplicated = errors.New("key already exists in table")

	// ErrSessionKeyDoesNotExist the session key is not known to the store
	ErrSessionKeyDoesNotExist = errors.New("session key does not exist")

	// ErrSessionExpired the session exists but its ttl has elapsed
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionKeyDuplicated a duplicate checked write collided with an existing session
	ErrSessionKeyDuplicated = errors.New("session key duplicated")

	// ErrInvalidArgument a key or value which can't be stored
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrFieldNotFound an allow listed field is absent from the record
	ErrFieldNotFound = errors.New("field not found")

	// ErrFieldMissing the record has no field with this name
	ErrFieldMissing = errors.New("field missing")
)

// TableNotFoundError is returned when a table lookup fails, it matches ErrTableNotFound.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table not found: %q", e.Table)
}

func (e *TableNotFoundError) Unwrap() error {
	return ErrTableNotFound
}

// Store is the session facade consumed by SessionStore
type Store interface {
	// GetWithContext a session record given its key
	GetWithContext(ctx context.Context, sessionKey string, options ...ReadOption) (*Record, error)

	// SetWithContext write the record to the table
	SetWithContext(ctx context.Context, record *Record, options ...WriteOption) error

	// ExistsWithContext verify if a session key exists in the table
	ExistsWithContext(ctx context.Context, sessionKey string, options ...ReadOption) (bool, error)

	// DeleteWithContext remove the record from the table
	DeleteWithContext(ctx context.Context, record *Record, options ...WriteOption) error
}
