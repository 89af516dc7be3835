package dataapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TypedValue is a single field or parameter value as exchanged with the
// remote SQL execution service. Exactly one variant is ever set, mirroring
// the service's tagged field union.
type TypedValue interface {
	isTypedValue()
}

type StringValue string

type LongValue int64

type DoubleValue float64

type BooleanValue bool

type BlobValue []byte

// NullValue represents an SQL NULL.
type NullValue struct{}

func (StringValue) isTypedValue()  {}
func (LongValue) isTypedValue()    {}
func (DoubleValue) isTypedValue()  {}
func (BooleanValue) isTypedValue() {}
func (BlobValue) isTypedValue()    {}
func (NullValue) isTypedValue()    {}

func (v StringValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"stringValue": string(v)})
}

func (v LongValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int64{"longValue": int64(v)})
}

func (v DoubleValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]float64{"doubleValue": float64(v)})
}

func (v BooleanValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]bool{"booleanValue": bool(v)})
}

func (v BlobValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]byte{"blobValue": []byte(v)})
}

func (NullValue) MarshalJSON() ([]byte, error) {
	return []byte(`{"isNull":true}`), nil
}

// AsString returns the string held by v, if v is a StringValue.
func AsString(v TypedValue) (string, bool) {
	s, ok := v.(StringValue)
	return string(s), ok
}

// IsNull reports whether v is absent or an SQL NULL.
func IsNull(v TypedValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NullValue)
	return ok
}

// NamedParameter binds a value to a :name placeholder in the statement text.
type NamedParameter struct {
	Name  string     `json:"name"`
	Value TypedValue `json:"value"`
}

// StringParam is shorthand for a NamedParameter carrying a StringValue.
func StringParam(name, value string) NamedParameter {
	return NamedParameter{Name: name, Value: StringValue(value)}
}

// Row holds one record's fields, positionally matching the select list.
type Row []TypedValue

// StatementResult is the row set returned by one statement, in database order.
type StatementResult struct {
	Records                []Row `json:"records"`
	NumberOfRecordsUpdated int64 `json:"numberOfRecordsUpdated"`
}

// Statement is the input of a single execution call. An empty TransactionID
// runs the statement in autocommit mode.
type Statement struct {
	SQL           string
	Parameters    []NamedParameter
	TransactionID string
}

// ConnectionConfig identifies the target database for every call made by a
// StatementExecutor. It is fixed for the executor's lifetime.
type ConnectionConfig struct {
	Database    string
	ResourceARN string
	SecretARN   string
}

// Validate rejects partially populated configurations.
func (c ConnectionConfig) Validate() error {
	var missing []error
	if c.Database == "" {
		missing = append(missing, errors.New("database name is required"))
	}
	if c.ResourceARN == "" {
		missing = append(missing, errors.New("cluster resource ARN is required"))
	}
	if c.SecretARN == "" {
		missing = append(missing, errors.New("credentials secret ARN is required"))
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid connection config: %w", errors.Join(missing...))
	}
	return nil
}
