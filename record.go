package dysession

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

// SessionExpiryField is computed on read and never taken from stored data.
const SessionExpiryField = "_session_expiry"

var (
	// absent auth fields are normal for anonymous sessions
	notFoundAllowList = map[string]bool{
		"_auth_user_id":      true,
		"_auth_user_backend": true,
		"_auth_user_hash":    true,
	}

	virtualFields = map[string]func(*Record) interface{}{
		SessionExpiryField: func(*Record) interface{} { return true },
	}

	// empty strings and collections are stored as themselves rather than NULL
	fieldEncoder = dynamodbattribute.NewEncoder(func(e *dynamodbattribute.Encoder) {
		e.NullEmptyString = false
		e.EnableEmptyCollections = true
	})
)

// Record represents the fields of a single session, the session key is held separately
// from the fields and is never returned by Names.
//
// Field values are held as *dynamodb.AttributeValue so strings, numbers, booleans, lists and
// maps keep their stored type across a write and read.
type Record struct {
	key    string
	names  []string
	fields map[string]*dynamodb.AttributeValue
}

// NewRecord create an empty record, an empty key means the session has no key assigned yet.
func NewRecord(key string) (*Record, error) {
	if key != "" {
		if err := validateKey(key); err != nil {
			return nil, err
		}
	}

	return &Record{key: key, fields: make(map[string]*dynamodb.AttributeValue)}, nil
}

// Key returns the session key, or an empty string if none is assigned
func (r *Record) Key() string {
	return r.key
}

// SetKey assign the session key
func (r *Record) SetKey(key string) error {
	if key != "" {
		if err := validateKey(key); err != nil {
			return err
		}
	}

	r.key = key

	return nil
}

// Set marshal the value using dynamodbattribute and store it under name
func (r *Record) Set(name string, value interface{}) error {
	av, err := fieldEncoder.Encode(value)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal field %q: %s", ErrInvalidArgument, name, err)
	}

	return r.SetAttribute(name, av)
}

// SetAttribute store a raw attribute value under name
func (r *Record) SetAttribute(name string, av *dynamodb.AttributeValue) error {
	if name == "" {
		return fmt.Errorf("%w: field name must not be empty", ErrInvalidArgument)
	}

	if av == nil {
		return fmt.Errorf("%w: field %q has no value", ErrInvalidArgument, name)
	}

	if _, ok := r.fields[name]; !ok {
		r.names = append(r.names, name)
	}

	r.fields[name] = av

	return nil
}

// Get return the value of the field decoded into its natural go type, numbers are returned as float64.
//
// Allow listed auth fields which are absent return ErrFieldNotFound, any other absent field returns ErrFieldMissing.
func (r *Record) Get(name string) (interface{}, error) {
	if fn, ok := virtualFields[name]; ok {
		return fn(r), nil
	}

	av, err := r.attribute(name)
	if err != nil {
		return nil, err
	}

	var out interface{}

	err = dynamodbattribute.Unmarshal(av, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal field %q: %w", name, err)
	}

	return out, nil
}

// Decode the field into out using dynamodbattribute
func (r *Record) Decode(name string, out interface{}) error {
	if fn, ok := virtualFields[name]; ok {
		av, err := fieldEncoder.Encode(fn(r))
		if err != nil {
			return err
		}

		return dynamodbattribute.Unmarshal(av, out)
	}

	av, err := r.attribute(name)
	if err != nil {
		return err
	}

	return dynamodbattribute.Unmarshal(av, out)
}

// GetDefault return the field value, def if it is missing or nil for an absent allow listed field
func (r *Record) GetDefault(name string, def interface{}) interface{} {
	val, err := r.Get(name)
	if err != nil {
		if notFoundAllowList[name] {
			return nil
		}
		return def
	}

	return val
}

// Pop return the field value and remove it from the record
func (r *Record) Pop(name string) (interface{}, error) {
	val, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	if _, ok := r.fields[name]; ok {
		r.remove(name)
	}

	return val, nil
}

// PopDefault same as Pop but return def if the field is missing
func (r *Record) PopDefault(name string, def interface{}) interface{} {
	val, err := r.Pop(name)
	if err != nil {
		return def
	}

	return val
}

// Delete remove the field, ErrFieldMissing is returned if it isn't present
func (r *Record) Delete(name string) error {
	if _, ok := r.fields[name]; !ok {
		return fmt.Errorf("%w: %q", ErrFieldMissing, name)
	}

	r.remove(name)

	return nil
}

// Has the record got a stored field with this name
func (r *Record) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Names of the stored fields in the order they were first set, excluding the session key
func (r *Record) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)

	return names
}

// Len number of stored fields
func (r *Record) Len() int {
	return len(r.names)
}

// IsEmpty true when the record carries no fields beyond its key
func (r *Record) IsEmpty() bool {
	return len(r.names) == 0
}

// Attributes returns a copy of the stored fields
func (r *Record) Attributes() map[string]*dynamodb.AttributeValue {
	attrs := make(map[string]*dynamodb.AttributeValue, len(r.fields))
	for k, v := range r.fields {
		attrs[k] = v
	}

	return attrs
}

// String render the record as JSON with the key under "session_key"
func (r *Record) String() string {
	data := make(map[string]interface{}, len(r.fields)+1)

	err := dynamodbattribute.UnmarshalMap(r.fields, &data)
	if err != nil {
		return fmt.Sprintf("<invalid record: %s>", err)
	}

	data["session_key"] = r.key

	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("<invalid record: %s>", err)
	}

	return string(buf)
}

func (r *Record) attribute(name string) (*dynamodb.AttributeValue, error) {
	av, ok := r.fields[name]
	if !ok {
		if notFoundAllowList[name] {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
		}
		return nil, fmt.Errorf("%w: %q", ErrFieldMissing, name)
	}

	return av, nil
}

func (r *Record) remove(name string) {
	delete(r.fields, name)

	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
}
