package dysession

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

var fixedNow = time.Date(2022, time.March, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

type fakeTable struct {
	partitionKey string
	ttlAttribute string
	items        map[string]map[string]*dynamodb.AttributeValue
}

// fakeDynamoDB in memory stand in for the handful of DynamoDB operations used by DynaTable
type fakeDynamoDB struct {
	dynamodbiface.DynamoDBAPI

	mu       sync.Mutex
	tables   map[string]*fakeTable
	pageSize int
	failures map[string]error
	calls    []string
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{
		tables:   make(map[string]*fakeTable),
		failures: make(map[string]error),
	}
}

func (f *fakeDynamoDB) withTable(name, partitionKey string) *fakeDynamoDB {
	f.tables[name] = &fakeTable{partitionKey: partitionKey, items: make(map[string]map[string]*dynamodb.AttributeValue)}
	return f
}

func (f *fakeDynamoDB) putRaw(table string, item map[string]*dynamodb.AttributeValue) {
	tbl := f.tables[table]
	tbl.items[aws.StringValue(item[tbl.partitionKey].S)] = item
}

func (f *fakeDynamoDB) record(op string) error {
	f.calls = append(f.calls, op)
	return f.failures[op]
}

func (f *fakeDynamoDB) countCalls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func notFound(name string) error {
	return awserr.New(dynamodb.ErrCodeResourceNotFoundException, "Requested resource not found: "+name, nil)
}

func (f *fakeDynamoDB) table(name *string) (*fakeTable, error) {
	tbl, ok := f.tables[aws.StringValue(name)]
	if !ok {
		return nil, notFound(aws.StringValue(name))
	}
	return tbl, nil
}

func (f *fakeDynamoDB) ListTablesWithContext(_ aws.Context, in *dynamodb.ListTablesInput, _ ...request.Option) (*dynamodb.ListTablesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("ListTables"); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		if in.ExclusiveStartTableName != nil && name <= aws.StringValue(in.ExclusiveStartTableName) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := &dynamodb.ListTablesOutput{}

	if f.pageSize > 0 && len(names) > f.pageSize {
		names = names[:f.pageSize]
		out.LastEvaluatedTableName = aws.String(names[len(names)-1])
	}

	out.TableNames = aws.StringSlice(names)

	return out, nil
}

func (f *fakeDynamoDB) CreateTableWithContext(_ aws.Context, in *dynamodb.CreateTableInput, _ ...request.Option) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("CreateTable"); err != nil {
		return nil, err
	}

	name := aws.StringValue(in.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, awserr.New(dynamodb.ErrCodeResourceInUseException, "Table already exists: "+name, nil)
	}

	f.tables[name] = &fakeTable{
		partitionKey: aws.StringValue(in.KeySchema[0].AttributeName),
		items:        make(map[string]map[string]*dynamodb.AttributeValue),
	}

	return &dynamodb.CreateTableOutput{
		TableDescription: &dynamodb.TableDescription{
			TableName:   in.TableName,
			KeySchema:   in.KeySchema,
			TableStatus: aws.String(dynamodb.TableStatusCreating),
		},
	}, nil
}

func (f *fakeDynamoDB) WaitUntilTableExistsWithContext(_ aws.Context, in *dynamodb.DescribeTableInput, _ ...request.WaiterOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("WaitUntilTableExists"); err != nil {
		return err
	}

	_, err := f.table(in.TableName)

	return err
}

func (f *fakeDynamoDB) UpdateTimeToLiveWithContext(_ aws.Context, in *dynamodb.UpdateTimeToLiveInput, _ ...request.Option) (*dynamodb.UpdateTimeToLiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("UpdateTimeToLive"); err != nil {
		return nil, err
	}

	tbl, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}

	tbl.ttlAttribute = aws.StringValue(in.TimeToLiveSpecification.AttributeName)

	return &dynamodb.UpdateTimeToLiveOutput{TimeToLiveSpecification: in.TimeToLiveSpecification}, nil
}

func (f *fakeDynamoDB) DeleteTableWithContext(_ aws.Context, in *dynamodb.DeleteTableInput, _ ...request.Option) (*dynamodb.DeleteTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("DeleteTable"); err != nil {
		return nil, err
	}

	if _, err := f.table(in.TableName); err != nil {
		return nil, err
	}

	delete(f.tables, aws.StringValue(in.TableName))

	return &dynamodb.DeleteTableOutput{
		TableDescription: &dynamodb.TableDescription{
			TableName:   in.TableName,
			TableStatus: aws.String(dynamodb.TableStatusDeleting),
		},
	}, nil
}

func (f *fakeDynamoDB) GetItemWithContext(_ aws.Context, in *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("GetItem"); err != nil {
		return nil, err
	}

	tbl, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}

	item, ok := tbl.items[aws.StringValue(in.Key[tbl.partitionKey].S)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}

	out := make(map[string]*dynamodb.AttributeValue, len(item))

	if in.ProjectionExpression != nil {
		for _, name := range strings.Split(aws.StringValue(in.ProjectionExpression), ",") {
			name = strings.TrimSpace(name)
			if alias, ok := in.ExpressionAttributeNames[name]; ok {
				name = aws.StringValue(alias)
			}
			if v, ok := item[name]; ok {
				out[name] = v
			}
		}
	} else {
		for k, v := range item {
			out[k] = v
		}
	}

	return &dynamodb.GetItemOutput{Item: out}, nil
}

func (f *fakeDynamoDB) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("PutItem"); err != nil {
		return nil, err
	}

	tbl, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}

	key := aws.StringValue(in.Item[tbl.partitionKey].S)

	// the only condition used is attribute_not_exists on the partition key
	if in.ConditionExpression != nil {
		if _, ok := tbl.items[key]; ok {
			return nil, awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "The conditional request failed", nil)
		}
	}

	item := make(map[string]*dynamodb.AttributeValue, len(in.Item))
	for k, v := range in.Item {
		item[k] = v
	}

	tbl.items[key] = item

	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) DeleteItemWithContext(_ aws.Context, in *dynamodb.DeleteItemInput, _ ...request.Option) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("DeleteItem"); err != nil {
		return nil, err
	}

	tbl, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}

	delete(tbl.items, aws.StringValue(in.Key[tbl.partitionKey].S))

	return &dynamodb.DeleteItemOutput{}, nil
}
