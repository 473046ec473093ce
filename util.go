package dysession

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

type contextKey int

const (
	OperationNameKey contextKey = 1 + iota
)

// maximum size of a DynamoDB partition key
const maxKeyLength = 2048

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: session key must not be empty", ErrInvalidArgument)
	}

	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: session key exceeds %d bytes", ErrInvalidArgument, maxKeyLength)
	}

	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: session key must be valid utf-8", ErrInvalidArgument)
	}

	return nil
}

// EncodeItem convert the record into a DynamoDB item, the session key is stored under partitionKey
func EncodeItem(record *Record, partitionKey string) map[string]*dynamodb.AttributeValue {
	item := record.Attributes()
	item[partitionKey] = &dynamodb.AttributeValue{S: aws.String(record.Key())}

	return item
}

// DecodeItem convert a DynamoDB item into a record keyed by sessionKey, the partition key attribute is dropped.
// DynamoDB doesn't keep attribute order so the fields of a decoded record are ordered by name.
func DecodeItem(sessionKey string, item map[string]*dynamodb.AttributeValue, partitionKey string) (*Record, error) {
	record, err := NewRecord(sessionKey)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(item))
	for k := range item {
		if k == partitionKey {
			continue
		}
		names = append(names, k)
	}

	sort.Strings(names)

	for _, k := range names {
		err = record.SetAttribute(k, item[k])
		if err != nil {
			return nil, fmt.Errorf("failed to decode attribute %q: %w", k, err)
		}
	}

	return record, nil
}

// ttlValue read the epoch seconds stored in the ttl attribute, false if it is absent or not a number
func ttlValue(item map[string]*dynamodb.AttributeValue, ttlAttribute string) (int64, bool) {
	v, ok := item[ttlAttribute]
	if !ok || v.N == nil {
		return 0, false
	}

	// whole seconds, a fractional value is truncated
	ttl, err := strconv.ParseFloat(aws.StringValue(v.N), 64)
	if err != nil {
		return 0, false
	}

	return int64(ttl), true
}

// isItemExpired the ttl attribute is strictly before now in whole seconds
func isItemExpired(item map[string]*dynamodb.AttributeValue, ttlAttribute string, now time.Time) bool {
	ttl, ok := ttlValue(item, ttlAttribute)
	if !ok {
		return false
	}

	return ttl < now.Unix()
}

// OperationName extracts the name of the operation being handled in the given
// context. If it is not known, it returns ("").
func OperationName(ctx context.Context) string {
	name, _ := ctx.Value(OperationNameKey).(string)
	return name
}

func setOperationName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, OperationNameKey, name)
}
