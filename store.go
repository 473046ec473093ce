package dysession

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/rs/zerolog"
)

// SessionStore holds the session for a single request, the record is loaded from the table on first access
// and written back on Save. It is not safe for concurrent use.
type SessionStore struct {
	store  Store
	cfg    *Config
	logger zerolog.Logger
	newKey KeyGenerator

	sessionKey string
	cache      *Record
	accessed   bool
	modified   bool
}

// StoreOption assign settings to a SessionStore
type StoreOption func(ss *SessionStore)

// WithKeyGenerator generate session keys with fn rather than RandomKey
func WithKeyGenerator(fn KeyGenerator) StoreOption {
	return func(ss *SessionStore) {
		if fn != nil {
			ss.newKey = fn
		}
	}
}

// WithStoreLogger log diagnostics to the supplied logger
func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(ss *SessionStore) {
		ss.logger = logger
	}
}

// NewSessionStore create a session store for the key presented by the client, an empty key means no session.
func NewSessionStore(store Store, cfg *Config, sessionKey string, options ...StoreOption) *SessionStore {
	ss := &SessionStore{
		store:  store,
		cfg:    cfg,
		logger: zerolog.Nop(),
		newKey: RandomKey,
	}

	for _, opt := range options {
		opt(ss)
	}

	if sessionKey != "" {
		if err := validateKey(sessionKey); err != nil {
			ss.logger.Warn().Err(err).Msg("suspicious session key")
			sessionKey = ""
		}
	}

	ss.sessionKey = sessionKey

	return ss
}

// NewSessionStore create a session store backed by the session facade of this client
func (ds *DynaSession) NewSessionStore(sessionKey string, options ...StoreOption) *SessionStore {
	options = append([]StoreOption{WithStoreLogger(ds.opts.logger)}, options...)

	return NewSessionStore(ds.Sessions(), ds.opts.config, sessionKey, options...)
}

// SessionKey the current session key, empty if none is assigned
func (ss *SessionStore) SessionKey() string {
	return ss.sessionKey
}

// Accessed the session data has been read or written during this request
func (ss *SessionStore) Accessed() bool {
	return ss.accessed
}

// Modified the session data has changed and needs to be saved
func (ss *SessionStore) Modified() bool {
	return ss.modified
}

// Data returns the session record, loading it on first access.
func (ss *SessionStore) Data(ctx context.Context) (*Record, error) {
	return ss.getSession(ctx, false)
}

// GetField read a field of the session record
func (ss *SessionStore) GetField(ctx context.Context, name string) (interface{}, error) {
	data, err := ss.getSession(ctx, false)
	if err != nil {
		return nil, err
	}

	return data.Get(name)
}

// SetField assign a field of the session record and mark the session modified
func (ss *SessionStore) SetField(ctx context.Context, name string, value interface{}) error {
	data, err := ss.getSession(ctx, false)
	if err != nil {
		return err
	}

	err = data.Set(name, value)
	if err != nil {
		return err
	}

	ss.modified = true

	return nil
}

// DeleteField remove a field of the session record and mark the session modified
func (ss *SessionStore) DeleteField(ctx context.Context, name string) error {
	data, err := ss.getSession(ctx, false)
	if err != nil {
		return err
	}

	err = data.Delete(name)
	if err != nil {
		return err
	}

	ss.modified = true

	return nil
}

// Load fetch the session record from the table.
//
// A missing, expired or invalid session isn't an error, the key is dropped and an empty record returned.
func (ss *SessionStore) Load(ctx context.Context) (*Record, error) {
	record, err := ss.store.GetWithContext(ctx, ss.sessionKey)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionKeyDoesNotExist), errors.Is(err, ErrSessionExpired):
		case errors.Is(err, ErrInvalidArgument):
			ss.logger.Warn().Err(err).Msg("suspicious session key")
		default:
			return nil, err
		}

		ss.sessionKey = ""

		return emptyRecord(), nil
	}

	return record, nil
}

// Exists verify if a session key is stored in the table
func (ss *SessionStore) Exists(ctx context.Context, sessionKey string) (bool, error) {
	return ss.store.ExistsWithContext(ctx, sessionKey)
}

// Create assign a new unique session key and save the session, new keys are generated until a
// duplicate checked write succeeds.
func (ss *SessionStore) Create(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		key, err := ss.newKey()
		if err != nil {
			return err
		}

		ss.sessionKey = key

		err = ss.Save(ctx, true)
		if err != nil {
			if errors.Is(err, ErrSessionKeyDuplicated) {
				continue
			}
			return err
		}

		ss.modified = true

		return nil
	}
}

// Save write the session to the table, if no key is assigned a new session is created.
//
// When mustCreate is true an existing key returns ErrSessionKeyDuplicated, otherwise the stored session is overwritten.
func (ss *SessionStore) Save(ctx context.Context, mustCreate bool) error {
	if ss.sessionKey == "" {
		return ss.Create(ctx)
	}

	data, err := ss.getSession(ctx, mustCreate)
	if err != nil {
		return err
	}

	err = data.SetKey(ss.sessionKey)
	if err != nil {
		return err
	}

	err = ss.store.SetWithContext(ctx, data,
		WriteWithDuplicateCheck(mustCreate), WriteWithTTL(ss.cfg.CachePeriod))
	if err != nil {
		if errors.Is(err, ErrSessionKeyDuplicated) && !mustCreate {
			return nil
		}
		return err
	}

	return nil
}

// Delete remove the session stored under sessionKey, or the current session if it is empty.
//
// Only an invalid key is reported, failures from the table are logged.
func (ss *SessionStore) Delete(ctx context.Context, sessionKey string) error {
	if sessionKey == "" {
		if ss.sessionKey == "" {
			return nil
		}
		sessionKey = ss.sessionKey
	}

	record, err := NewRecord(sessionKey)
	if err != nil {
		return err
	}

	err = ss.store.DeleteWithContext(ctx, record)
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return err
		}
		ss.logger.Error().Err(err).Str("session_key", sessionKey).Msg("failed to delete session")
	}

	return nil
}

// Clear remove every field from the session
func (ss *SessionStore) Clear() {
	ss.cache = emptyRecord()
	ss.accessed = true
	ss.modified = true
}

// Flush remove the session from the table and drop the key
func (ss *SessionStore) Flush(ctx context.Context) error {
	ss.Clear()

	err := ss.Delete(ctx, "")
	if err != nil {
		return err
	}

	ss.sessionKey = ""

	return nil
}

// CycleKey move the session data to a new key and remove the old one
func (ss *SessionStore) CycleKey(ctx context.Context) error {
	data, err := ss.getSession(ctx, false)
	if err != nil {
		return err
	}

	oldKey := ss.sessionKey

	err = ss.Create(ctx)
	if err != nil {
		return err
	}

	ss.cache = data

	if oldKey != "" {
		return ss.Delete(ctx, oldKey)
	}

	return nil
}

// IsEmpty true when there is no session key and no session data
func (ss *SessionStore) IsEmpty() bool {
	return ss.sessionKey == "" && (ss.cache == nil || ss.cache.IsEmpty())
}

// ClearExpired does nothing, expired sessions are removed by the table's ttl attribute rather than
// scanning the table.
func (ss *SessionStore) ClearExpired(ctx context.Context) error {
	return nil
}

func (ss *SessionStore) getSession(ctx context.Context, noLoad bool) (*Record, error) {
	ss.accessed = true

	if ss.cache != nil {
		return ss.cache, nil
	}

	if ss.sessionKey == "" || noLoad {
		ss.cache = emptyRecord()
		return ss.cache, nil
	}

	record, err := ss.Load(ctx)
	if err != nil {
		return nil, err
	}

	ss.cache = record

	return ss.cache, nil
}

func emptyRecord() *Record {
	return &Record{fields: make(map[string]*dynamodb.AttributeValue)}
}
