package dysession

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// WriteOption assign various settings to the write options
type WriteOption func(opts *WriteOptions)

// WriteOptions contains optional request parameters
type WriteOptions struct {
	tableName      string
	duplicateCheck bool
	ttl            *time.Duration
}

// Append append more options which supports conditional addition
func (wo *WriteOptions) Append(opts ...WriteOption) {
	for _, opt := range opts {
		opt(wo)
	}
}

// NewWriteOptions create write options, assign defaults then accept overrides
// duplicate checking is enabled by default
func NewWriteOptions(opts ...WriteOption) *WriteOptions {
	writeOpts := &WriteOptions{
		duplicateCheck: true,
	}

	writeOpts.Append(opts...)

	return writeOpts
}

// WriteWithTable write to this table rather than the configured one
func WriteWithTable(tableName string) WriteOption {
	return func(opts *WriteOptions) {
		opts.tableName = tableName
	}
}

// WriteWithDuplicateCheck enable or disable the existing key check prior to writing
func WriteWithDuplicateCheck(check bool) WriteOption {
	return func(opts *WriteOptions) {
		opts.duplicateCheck = check
	}
}

// WriteWithTTL set the ttl attribute so the item expires after the duration
func WriteWithTTL(ttl time.Duration) WriteOption {
	return func(opts *WriteOptions) {
		opts.ttl = &ttl
	}
}

// ReadOption assign various settings to the read options
type ReadOption func(opts *ReadOptions)

// ReadOptions contains optional request parameters
type ReadOptions struct {
	tableName  string
	consistent bool
}

// Append append more options which supports conditional addition
func (ro *ReadOptions) Append(opts ...ReadOption) {
	for _, opt := range opts {
		opt(ro)
	}
}

// NewReadOptions create read options, assign defaults then accept overrides
// reads are eventually consistent by default
func NewReadOptions(opts ...ReadOption) *ReadOptions {
	readOpts := &ReadOptions{}

	readOpts.Append(opts...)

	return readOpts
}

// ReadWithTable read from this table rather than the configured one
func ReadWithTable(tableName string) ReadOption {
	return func(opts *ReadOptions) {
		opts.tableName = tableName
	}
}

// ReadConsistent enable strongly consistent reads
func ReadConsistent() ReadOption {
	return func(opts *ReadOptions) {
		opts.consistent = true
	}
}

// SessionOption assign settings used when constructing a client
type SessionOption func(opts *SessionOptions)

// SessionOptions contains the optional dependencies of the client, table and facade
type SessionOptions struct {
	config     *Config
	logger     zerolog.Logger
	storeHooks *StoreHooks
	clock      func() time.Time
	metrics    *Metrics
}

// NewSessionOptions create session options, assign defaults then accept overrides
func NewSessionOptions(opts ...SessionOption) *SessionOptions {
	sessionOpts := &SessionOptions{
		config:     DefaultConfig(),
		logger:     zerolog.Nop(),
		storeHooks: defaultHooks,
		clock:      time.Now,
	}

	for _, opt := range opts {
		opt(sessionOpts)
	}

	return sessionOpts
}

// WithConfig use the supplied configuration
func WithConfig(cfg *Config) SessionOption {
	return func(opts *SessionOptions) {
		if cfg != nil {
			opts.config = cfg
		}
	}
}

// WithLogger log diagnostics to the supplied logger
func WithLogger(logger zerolog.Logger) SessionOption {
	return func(opts *SessionOptions) {
		opts.logger = logger
	}
}

// WithStoreHooks assign hooks which are called as requests are built
func WithStoreHooks(storeHooks *StoreHooks) SessionOption {
	return func(opts *SessionOptions) {
		if storeHooks != nil {
			opts.storeHooks = storeHooks
		}
	}
}

// WithClock override the time source used to evaluate expiry
func WithClock(clock func() time.Time) SessionOption {
	return func(opts *SessionOptions) {
		if clock != nil {
			opts.clock = clock
		}
	}
}

// WithMetrics record session outcomes using the supplied metrics
func WithMetrics(metrics *Metrics) SessionOption {
	return func(opts *SessionOptions) {
		opts.metrics = metrics
	}
}

// WithRegisterer create metrics and register them with reg
func WithRegisterer(reg prometheus.Registerer) SessionOption {
	return func(opts *SessionOptions) {
		opts.metrics = NewMetrics(reg)
	}
}
