package dysession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/stretchr/testify/require"
)

func sequenceKeys(keys ...string) KeyGenerator {
	i := 0
	return func() (string, error) {
		k := keys[i]
		i++
		return k, nil
	}
}

func newTestStore(fake *fakeDynamoDB, sessionKey string, options ...StoreOption) *SessionStore {
	return newTestSession(fake).NewSessionStore(sessionKey, options...)
}

func TestSessionStoreWithoutKey(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	ss := newTestStore(fake, "")

	assert.True(ss.IsEmpty())
	assert.False(ss.Accessed())

	data, err := ss.Data(context.Background())
	assert.NoError(err)
	assert.True(data.IsEmpty())
	assert.True(ss.Accessed())
	assert.False(ss.Modified())
	assert.Equal(0, fake.countCalls("GetItem"))
}

func TestSessionStoreLazyLoad(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	fake.putRaw("sessions", map[string]*dynamodb.AttributeValue{
		"PK":            {S: aws.String("abc")},
		"_auth_user_id": {S: aws.String("42")},
	})

	ss := newTestStore(fake, "abc")
	assert.Equal(0, fake.countCalls("GetItem"))
	assert.False(ss.IsEmpty())

	val, err := ss.GetField(context.Background(), "_auth_user_id")
	assert.NoError(err)
	assert.Equal("42", val)

	_, err = ss.Data(context.Background())
	assert.NoError(err)
	assert.Equal(1, fake.countCalls("GetItem"))
	assert.Equal("abc", ss.SessionKey())
}

func TestSessionStoreLoadTreatedAsNoSession(t *testing.T) {
	tests := []struct {
		name string
		item map[string]*dynamodb.AttributeValue
	}{
		{name: "should drop a missing session"},
		{
			name: "should drop an expired session",
			item: map[string]*dynamodb.AttributeValue{
				"PK":  {S: aws.String("abcdefgh")},
				"a":   {N: aws.String("1")},
				"ttl": {N: aws.String("1")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := require.New(t)

			fake := newFakeDynamoDB().withTable("sessions", "PK")
			if tt.item != nil {
				fake.putRaw("sessions", tt.item)
			}

			ss := newTestStore(fake, "abcdefgh")

			data, err := ss.Data(context.Background())
			assert.NoError(err)
			assert.True(data.IsEmpty())
			assert.Equal("", ss.SessionKey())
			assert.True(ss.IsEmpty())
		})
	}
}

func TestSessionStoreSuspiciousKey(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	ss := newTestStore(fake, "\xff\xfe")

	assert.Equal("", ss.SessionKey())

	data, err := ss.Data(context.Background())
	assert.NoError(err)
	assert.True(data.IsEmpty())
	assert.Equal(0, fake.countCalls("GetItem"))
}

func TestSessionStoreLoadFailure(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	fake.failures["GetItem"] = errors.New("throttled")

	ss := newTestStore(fake, "abc")

	_, err := ss.Data(context.Background())
	assert.Error(err)
}

func TestSessionStoreCreateRetriesDuplicates(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	fake.putRaw("sessions", map[string]*dynamodb.AttributeValue{"PK": {S: aws.String("taken")}})

	ss := newTestStore(fake, "", WithKeyGenerator(sequenceKeys("taken", "fresh")))

	assert.NoError(ss.Create(context.Background()))
	assert.Equal("fresh", ss.SessionKey())
	assert.True(ss.Modified())
	assert.Equal(1, fake.countCalls("PutItem"))
	assert.Contains(fake.tables["sessions"].items, "fresh")
}

func TestSessionStoreCreateCancelled(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	ss := newTestStore(fake, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(ss.Create(ctx), context.Canceled)
}

func TestSessionStoreSave(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	ss := newTestStore(fake, "", WithKeyGenerator(sequenceKeys("first")))

	ctx := context.Background()

	assert.NoError(ss.SetField(ctx, "a", 1))
	assert.True(ss.Modified())

	// no key assigned so the session is created
	assert.NoError(ss.Save(ctx, false))
	assert.Equal("first", ss.SessionKey())

	assert.NoError(ss.SetField(ctx, "a", 2))
	assert.NoError(ss.Save(ctx, false))

	item := fake.tables["sessions"].items["first"]
	assert.Equal("2", aws.StringValue(item["a"].N))

	ttl, ok := ttlValue(item, "ttl")
	assert.True(ok)
	assert.Equal(fixedNow.Add(time.Hour).Unix(), ttl)

	assert.ErrorIs(ss.Save(ctx, true), ErrSessionKeyDuplicated)
}

func TestSessionStoreDeleteField(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	fake.putRaw("sessions", map[string]*dynamodb.AttributeValue{
		"PK": {S: aws.String("abc")},
		"a":  {N: aws.String("1")},
		"b":  {N: aws.String("2")},
	})

	ss := newTestStore(fake, "abc")

	ctx := context.Background()

	assert.NoError(ss.DeleteField(ctx, "a"))
	assert.True(ss.Modified())

	assert.ErrorIs(ss.DeleteField(ctx, "a"), ErrFieldMissing)

	_, err := ss.GetField(ctx, "a")
	assert.ErrorIs(err, ErrFieldMissing)

	assert.NoError(ss.Save(ctx, false))

	item := fake.tables["sessions"].items["abc"]
	assert.NotContains(item, "a")
	assert.Equal("2", aws.StringValue(item["b"].N))
}

func TestSessionStoreDelete(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	fake.putRaw("sessions", map[string]*dynamodb.AttributeValue{"PK": {S: aws.String("abc")}})
	fake.putRaw("sessions", map[string]*dynamodb.AttributeValue{"PK": {S: aws.String("def")}})

	ss := newTestStore(fake, "abc")
	ctx := context.Background()

	assert.NoError(ss.Delete(ctx, "def"))
	assert.NotContains(fake.tables["sessions"].items, "def")

	assert.NoError(ss.Delete(ctx, ""))
	assert.NotContains(fake.tables["sessions"].items, "abc")

	// best effort, failures are only logged
	fake.failures["DeleteItem"] = errors.New("throttled")
	assert.NoError(ss.Delete(ctx, "abc"))

	assert.ErrorIs(ss.Delete(ctx, "\xff"), ErrInvalidArgument)

	assert.NoError(newTestStore(fake, "").Delete(ctx, ""))
}

func TestSessionStoreFlush(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	fake.putRaw("sessions", map[string]*dynamodb.AttributeValue{
		"PK": {S: aws.String("abc")},
		"a":  {N: aws.String("1")},
	})

	ss := newTestStore(fake, "abc")

	assert.NoError(ss.Flush(context.Background()))
	assert.Equal("", ss.SessionKey())
	assert.True(ss.IsEmpty())
	assert.Empty(fake.tables["sessions"].items)
}

func TestSessionStoreCycleKey(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	fake.putRaw("sessions", map[string]*dynamodb.AttributeValue{
		"PK": {S: aws.String("old")},
		"a":  {N: aws.String("1")},
	})

	ss := newTestStore(fake, "old", WithKeyGenerator(sequenceKeys("new")))

	assert.NoError(ss.CycleKey(context.Background()))
	assert.Equal("new", ss.SessionKey())

	items := fake.tables["sessions"].items
	assert.NotContains(items, "old")
	assert.Equal("1", aws.StringValue(items["new"]["a"].N))
}

func TestSessionStoreClearExpired(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	ss := newTestStore(fake, "abc")

	assert.NoError(ss.ClearExpired(context.Background()))
	assert.Empty(fake.calls)
}

func TestSessionStoreExists(t *testing.T) {
	assert := require.New(t)

	fake := newFakeDynamoDB().withTable("sessions", "PK")
	fake.putRaw("sessions", map[string]*dynamodb.AttributeValue{"PK": {S: aws.String("abc")}})

	ss := newTestStore(fake, "")

	exists, err := ss.Exists(context.Background(), "abc")
	assert.NoError(err)
	assert.True(exists)

	exists, err = ss.Exists(context.Background(), "def")
	assert.NoError(err)
	assert.False(exists)
}
