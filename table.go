package dysession

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	dexp "github.com/aws/aws-sdk-go/service/dynamodb/expression"
	"github.com/rs/zerolog"
)

// DynaTable stateless access to a single session table. Records are never retained after a call returns.
type DynaTable struct {
	session   *DynaSession
	tableName string
}

// CreateTableOptions settings used to provision a session table, empty values are taken from the config
type CreateTableOptions struct {
	PartitionKey string
	TTLAttribute string

	// Wait until the table is active before returning
	Wait bool

	// EnableTTL turn on background expiry of the ttl attribute, this implies Wait
	EnableTTL bool
}

func (dt *DynaTable) GetTableName() string {
	return dt.tableName
}

func (dt *DynaTable) config() *Config {
	return dt.session.opts.config
}

func (dt *DynaTable) logger() *zerolog.Logger {
	return &dt.session.opts.logger
}

// TableExists check the table is listed in the current region
func (dt *DynaTable) TableExists() (bool, error) {
	return dt.TableExistsWithContext(context.Background())
}

// TableExistsWithContext check the table is listed in the current region, a missing table
// returns a *TableNotFoundError
func (dt *DynaTable) TableExistsWithContext(ctx context.Context) (bool, error) {
	ctx = setOperationName(ctx, "TableExists")

	listTables := &dynamodb.ListTablesInput{}

	for {
		ctx = dt.session.opts.storeHooks.RequestBuilt(ctx, listTables)

		res, err := dt.session.ListTablesWithContext(ctx, listTables)
		if err != nil {
			return false, fmt.Errorf("failed to list tables: %w", err)
		}

		for _, name := range res.TableNames {
			if aws.StringValue(name) == dt.tableName {
				return true, nil
			}
		}

		if res.LastEvaluatedTableName == nil {
			break
		}

		listTables = &dynamodb.ListTablesInput{ExclusiveStartTableName: res.LastEvaluatedTableName}
	}

	dt.logger().Error().Str("table", dt.tableName).Msg("table is not found in current region")

	return false, &TableNotFoundError{Table: dt.tableName}
}

// KeyExists check if an item is stored under the session key
func (dt *DynaTable) KeyExists(sessionKey string, options ...ReadOption) (bool, error) {
	return dt.KeyExistsWithContext(context.Background(), sessionKey, options...)
}

// KeyExistsWithContext check if an item is stored under the session key, only the key attribute is read.
//
// Expiry isn't considered, an expired item which hasn't been reaped still exists.
func (dt *DynaTable) KeyExistsWithContext(ctx context.Context, sessionKey string, options ...ReadOption) (bool, error) {
	if err := validateKey(sessionKey); err != nil {
		return false, err
	}

	readOptions := NewReadOptions(options...)

	ctx = setOperationName(ctx, "KeyExists")

	pk := dt.config().PartitionKey

	expr, err := dexp.NewBuilder().WithProjection(dexp.NamesList(dexp.Name(pk))).Build()
	if err != nil {
		return false, fmt.Errorf("failed to build projection expression: %w", err)
	}

	getItem := &dynamodb.GetItemInput{
		TableName:                aws.String(dt.GetTableName()),
		Key:                      buildKey(pk, sessionKey),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
		ConsistentRead:           aws.Bool(readOptions.consistent),
	}

	ctx = dt.session.opts.storeHooks.RequestBuilt(ctx, getItem)

	res, err := dt.session.GetItemWithContext(ctx, getItem)
	if err != nil {
		return false, fmt.Errorf("failed to get item: %w", err)
	}

	return res.Item != nil, nil
}

// GetItem fetch the record stored under the session key
func (dt *DynaTable) GetItem(sessionKey string, options ...ReadOption) (*Record, error) {
	return dt.GetItemWithContext(context.Background(), sessionKey, options...)
}

// GetItemWithContext fetch the record stored under the session key, ErrItemNotFound is returned if there is none
func (dt *DynaTable) GetItemWithContext(ctx context.Context, sessionKey string, options ...ReadOption) (*Record, error) {
	if err := validateKey(sessionKey); err != nil {
		return nil, err
	}

	readOptions := NewReadOptions(options...)

	ctx = setOperationName(ctx, "GetItem")

	pk := dt.config().PartitionKey

	getItem := &dynamodb.GetItemInput{
		TableName:      aws.String(dt.GetTableName()),
		Key:            buildKey(pk, sessionKey),
		ConsistentRead: aws.Bool(readOptions.consistent),
	}

	ctx = dt.session.opts.storeHooks.RequestBuilt(ctx, getItem)

	res, err := dt.session.GetItemWithContext(ctx, getItem)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if res.Item == nil {
		return nil, ErrItemNotFound
	}

	record, err := DecodeItem(sessionKey, res.Item, pk)
	if err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}

	return record, nil
}

// InsertItem write the record to the table
func (dt *DynaTable) InsertItem(record *Record, options ...WriteOption) (*dynamodb.PutItemOutput, error) {
	return dt.InsertItemWithContext(context.Background(), record, options...)
}

// InsertItemWithContext write every field of the record along with its key, overwriting any existing item.
//
// With duplicate checking enabled ErrKeyDuplicated is returned, and nothing written, if the key exists. The
// existence check and the write are separate requests unless Config.ConditionalCreate is set, so two writers
// racing on a fresh key can both succeed with the last write winning.
func (dt *DynaTable) InsertItemWithContext(ctx context.Context, record *Record, options ...WriteOption) (*dynamodb.PutItemOutput, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: record must not be nil", ErrInvalidArgument)
	}

	if err := validateKey(record.Key()); err != nil {
		return nil, err
	}

	writeOptions := NewWriteOptions(options...)
	cfg := dt.config()

	if writeOptions.duplicateCheck && !cfg.ConditionalCreate {
		exists, err := dt.KeyExistsWithContext(ctx, record.Key())
		if err != nil {
			return nil, err
		}

		if exists {
			dt.logger().Warn().Str("table", dt.tableName).Str("session_key", record.Key()).Msg("session key already exists")
			return nil, ErrKeyDuplicated
		}
	}

	ctx = setOperationName(ctx, "InsertItem")

	item := EncodeItem(record, cfg.PartitionKey)

	if writeOptions.ttl != nil {
		ttlVal := ttlFromNow(dt.session.opts.clock(), *writeOptions.ttl)
		item[cfg.TTLAttribute] = &dynamodb.AttributeValue{N: aws.String(strconv.FormatInt(ttlVal, 10))}
	}

	putItem := &dynamodb.PutItemInput{
		TableName: aws.String(dt.GetTableName()),
		Item:      item,
	}

	if writeOptions.duplicateCheck && cfg.ConditionalCreate {
		expr, err := dexp.NewBuilder().WithCondition(dexp.AttributeNotExists(dexp.Name(cfg.PartitionKey))).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build condition expression: %w", err)
		}

		putItem.ConditionExpression = expr.Condition()
		putItem.ExpressionAttributeNames = expr.Names()
	}

	ctx = dt.session.opts.storeHooks.RequestBuilt(ctx, putItem)

	res, err := dt.session.PutItemWithContext(ctx, putItem)
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok {
			if awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
				dt.logger().Warn().Str("table", dt.tableName).Str("session_key", record.Key()).Msg("session key already exists")
				return nil, ErrKeyDuplicated
			}
		}
		return nil, fmt.Errorf("failed to put item: %w", err)
	}

	return res, nil
}

// DeleteItem remove the item addressed by the record key
func (dt *DynaTable) DeleteItem(record *Record) (*dynamodb.DeleteItemOutput, error) {
	return dt.DeleteItemWithContext(context.Background(), record)
}

// DeleteItemWithContext remove the item addressed by the record key, deleting an absent key isn't an error
func (dt *DynaTable) DeleteItemWithContext(ctx context.Context, record *Record) (*dynamodb.DeleteItemOutput, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: record must not be nil", ErrInvalidArgument)
	}

	if err := validateKey(record.Key()); err != nil {
		return nil, err
	}

	ctx = setOperationName(ctx, "DeleteItem")

	deleteItem := &dynamodb.DeleteItemInput{
		TableName: aws.String(dt.GetTableName()),
		Key:       buildKey(dt.config().PartitionKey, record.Key()),
	}

	ctx = dt.session.opts.storeHooks.RequestBuilt(ctx, deleteItem)

	res, err := dt.session.DeleteItemWithContext(ctx, deleteItem)
	if err != nil {
		return nil, fmt.Errorf("failed to delete item: %w", err)
	}

	return res, nil
}

// CreateTable provision the session table
func (dt *DynaTable) CreateTable(options CreateTableOptions) (*dynamodb.CreateTableOutput, error) {
	return dt.CreateTableWithContext(context.Background(), options)
}

// CreateTableWithContext provision the session table with on demand billing and a single string hash key
func (dt *DynaTable) CreateTableWithContext(ctx context.Context, options CreateTableOptions) (*dynamodb.CreateTableOutput, error) {
	ctx = setOperationName(ctx, "CreateTable")

	cfg := dt.config()

	if options.PartitionKey == "" {
		options.PartitionKey = cfg.PartitionKey
	}

	if options.TTLAttribute == "" {
		options.TTLAttribute = cfg.TTLAttribute
	}

	createTable := &dynamodb.CreateTableInput{
		TableName: aws.String(dt.GetTableName()),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String(options.PartitionKey), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String(options.PartitionKey), KeyType: aws.String(dynamodb.KeyTypeHash)},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		TableClass:  aws.String(dynamodb.TableClassStandard),
	}

	ctx = dt.session.opts.storeHooks.RequestBuilt(ctx, createTable)

	res, err := dt.session.CreateTableWithContext(ctx, createTable)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	if !options.Wait && !options.EnableTTL {
		return res, nil
	}

	err = dt.session.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(dt.GetTableName()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed waiting for table: %w", err)
	}

	if options.EnableTTL {
		updateTTL := &dynamodb.UpdateTimeToLiveInput{
			TableName: aws.String(dt.GetTableName()),
			TimeToLiveSpecification: &dynamodb.TimeToLiveSpecification{
				AttributeName: aws.String(options.TTLAttribute),
				Enabled:       aws.Bool(true),
			},
		}

		ctx = dt.session.opts.storeHooks.RequestBuilt(setOperationName(ctx, "UpdateTimeToLive"), updateTTL)

		_, err = dt.session.UpdateTimeToLiveWithContext(ctx, updateTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to enable ttl: %w", err)
		}
	}

	return res, nil
}

// DestroyTable delete the session table
func (dt *DynaTable) DestroyTable() (*dynamodb.DeleteTableOutput, error) {
	return dt.DestroyTableWithContext(context.Background())
}

// DestroyTableWithContext delete the session table, a missing table returns a *TableNotFoundError
func (dt *DynaTable) DestroyTableWithContext(ctx context.Context) (*dynamodb.DeleteTableOutput, error) {
	ctx = setOperationName(ctx, "DestroyTable")

	deleteTable := &dynamodb.DeleteTableInput{
		TableName: aws.String(dt.GetTableName()),
	}

	ctx = dt.session.opts.storeHooks.RequestBuilt(ctx, deleteTable)

	res, err := dt.session.DeleteTableWithContext(ctx, deleteTable)
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok {
			if awsErr.Code() == dynamodb.ErrCodeResourceNotFoundException {
				dt.logger().Error().Str("table", dt.tableName).Msg("table is not found in current region")
				return nil, &TableNotFoundError{Table: dt.tableName}
			}
		}
		return nil, fmt.Errorf("failed to delete table: %w", err)
	}

	return res, nil
}

// ttlFromNow epoch seconds for a ttl attribute d from now
func ttlFromNow(now time.Time, d time.Duration) int64 {
	return now.Add(d).Unix()
}

func buildKey(partitionKey, sessionKey string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		partitionKey: {S: aws.String(sessionKey)},
	}
}
