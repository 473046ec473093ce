package dysession

import (
	"context"
	"errors"
	"fmt"
)

var _ Store = &Sessions{}

// Sessions combines existence, expiry and duplicate key policy over a session table.
//
// Expiry is evaluated when a session is read, an item whose ttl attribute is in the past is reported as
// expired even if DynamoDB hasn't removed it yet.
type Sessions struct {
	session *DynaSession
	table   *DynaTable
}

// Table the configured session table
func (s *Sessions) Table() *DynaTable {
	return s.table
}

func (s *Sessions) tableFor(tableName string) *DynaTable {
	if tableName == "" {
		return s.table
	}

	return s.session.Table(tableName)
}

// Get a session record given its key
func (s *Sessions) Get(sessionKey string, options ...ReadOption) (*Record, error) {
	return s.GetWithContext(context.Background(), sessionKey, options...)
}

// GetWithContext a session record given its key.
//
// ErrSessionKeyDoesNotExist is returned when no item is stored and ErrSessionExpired when the item's ttl
// attribute is before the current time in whole seconds.
func (s *Sessions) GetWithContext(ctx context.Context, sessionKey string, options ...ReadOption) (*Record, error) {
	if err := validateKey(sessionKey); err != nil {
		return nil, err
	}

	readOptions := NewReadOptions(options...)
	tbl := s.tableFor(readOptions.tableName)
	logger := s.session.opts.logger

	record, err := tbl.GetItemWithContext(ctx, sessionKey, options...)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			logger.Debug().Str("table", tbl.GetTableName()).Str("session_key", sessionKey).Msg("session key does not exist")
			s.session.opts.metrics.get(resultMiss)
			return nil, ErrSessionKeyDoesNotExist
		}
		s.session.opts.metrics.get(resultError)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	ttlAttribute := s.session.opts.config.TTLAttribute
	now := s.session.opts.clock()

	if isItemExpired(record.fields, ttlAttribute, now) {
		ttl, _ := ttlValue(record.fields, ttlAttribute)
		logger.Info().Str("table", tbl.GetTableName()).Str("session_key", sessionKey).Int64("ttl", ttl).Msg("session expired")
		s.session.opts.metrics.get(resultExpired)
		return nil, ErrSessionExpired
	}

	s.session.opts.metrics.get(resultHit)

	return record, nil
}

// Set write the session record
func (s *Sessions) Set(record *Record, options ...WriteOption) error {
	return s.SetWithContext(context.Background(), record, options...)
}

// SetWithContext write the session record, by default an existing key returns ErrSessionKeyDuplicated.
//
// With WriteWithDuplicateCheck(false) the record overwrites whatever is stored under the key.
func (s *Sessions) SetWithContext(ctx context.Context, record *Record, options ...WriteOption) error {
	writeOptions := NewWriteOptions(options...)

	_, err := s.tableFor(writeOptions.tableName).InsertItemWithContext(ctx, record, options...)
	if err != nil {
		if errors.Is(err, ErrKeyDuplicated) {
			s.session.opts.metrics.set(resultDuplicate)
			return ErrSessionKeyDuplicated
		}
		s.session.opts.metrics.set(resultError)
		if errors.Is(err, ErrInvalidArgument) {
			return err
		}
		return fmt.Errorf("failed to set session: %w", err)
	}

	s.session.opts.metrics.set(resultOK)

	return nil
}

// Exists verify if a session key exists
func (s *Sessions) Exists(sessionKey string, options ...ReadOption) (bool, error) {
	return s.ExistsWithContext(context.Background(), sessionKey, options...)
}

// ExistsWithContext verify if a session key exists, a missing key returns false without an error
func (s *Sessions) ExistsWithContext(ctx context.Context, sessionKey string, options ...ReadOption) (bool, error) {
	if err := validateKey(sessionKey); err != nil {
		return false, err
	}

	readOptions := NewReadOptions(options...)

	exists, err := s.tableFor(readOptions.tableName).KeyExistsWithContext(ctx, sessionKey, options...)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}

	return exists, nil
}

// Delete remove the session record
func (s *Sessions) Delete(record *Record, options ...WriteOption) error {
	return s.DeleteWithContext(context.Background(), record, options...)
}

// DeleteWithContext remove the session record, a record without a key is ignored
func (s *Sessions) DeleteWithContext(ctx context.Context, record *Record, options ...WriteOption) error {
	if record == nil || record.Key() == "" {
		return nil
	}

	writeOptions := NewWriteOptions(options...)

	_, err := s.tableFor(writeOptions.tableName).DeleteItemWithContext(ctx, record)
	if err != nil {
		s.session.opts.metrics.delete(resultError)
		if errors.Is(err, ErrInvalidArgument) {
			return err
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.session.opts.metrics.delete(resultOK)

	return nil
}
