package dysession

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/rs/zerolog"
)

// DynaSession holds the DynamoDB client and the options shared by every table and facade built from it.
// The client is shared read only between calls.
type DynaSession struct {
	dynamodbiface.DynamoDBAPI
	opts *SessionOptions
}

// Table access the store functions for the named table
func (ds *DynaSession) Table(tableName string) *DynaTable {
	return &DynaTable{session: ds, tableName: tableName}
}

// Sessions return the session facade bound to the configured table
func (ds *DynaSession) Sessions() *Sessions {
	return &Sessions{session: ds, table: ds.Table(ds.opts.config.TableName)}
}

// Config return the configuration in use
func (ds *DynaSession) Config() *Config {
	return ds.opts.config
}

// Logger return the logger used for diagnostics
func (ds *DynaSession) Logger() zerolog.Logger {
	return ds.opts.logger
}

// New construct a DynamoDB backed session client with default session / service
func New(awscfg *aws.Config, options ...SessionOption) *DynaSession {
	sessionOptions := NewSessionOptions(options...)

	if awscfg == nil {
		awscfg = AWSConfig(sessionOptions.config)
	}

	sess := session.Must(session.NewSession(awscfg))
	dynamoSvc := dynamodb.New(sess)

	return &DynaSession{
		dynamoSvc,
		sessionOptions,
	}
}

// NewWithClient construct a session client using the supplied DynamoDB service
func NewWithClient(dynamoSvc dynamodbiface.DynamoDBAPI, options ...SessionOption) *DynaSession {
	return &DynaSession{
		dynamoSvc,
		NewSessionOptions(options...),
	}
}

// AWSConfig build the aws configuration for the region and optional endpoint
func AWSConfig(cfg *Config) *aws.Config {
	awscfg := aws.NewConfig().WithRegion(cfg.Region)

	if cfg.Endpoint != "" {
		awscfg = awscfg.WithEndpoint(cfg.Endpoint)
	}

	return awscfg
}
