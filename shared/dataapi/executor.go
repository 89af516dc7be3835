// Package dataapi runs parameterized SQL against a remote, stateless SQL
// execution service. Callers hand over statement text and named parameters
// and get back positional rows; the transport behind it is pluggable.
package dataapi

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Request is everything the remote service needs for one statement.
type Request struct {
	SecretARN     string
	Database      string
	ResourceARN   string
	SQL           string
	Parameters    []NamedParameter
	TransactionID string
}

// TransactionRequest addresses a transaction on the remote service.
type TransactionRequest struct {
	SecretARN     string
	Database      string
	ResourceARN   string
	TransactionID string
}

// Client is the transport capability a StatementExecutor drives.
type Client interface {
	ExecuteStatement(ctx context.Context, req Request) (*StatementResult, error)
	BeginTransaction(ctx context.Context, req TransactionRequest) (string, error)
	CommitTransaction(ctx context.Context, req TransactionRequest) (string, error)
	RollbackTransaction(ctx context.Context, req TransactionRequest) (string, error)
}

// Executor runs a single statement.
type Executor interface {
	Execute(ctx context.Context, stmt Statement) (*StatementResult, error)
}

// TransactionalExecutor is an Executor that can also scope statements to a
// transaction.
type TransactionalExecutor interface {
	Executor
	BeginTransaction(ctx context.Context) (string, error)
	CommitTransaction(ctx context.Context, transactionID string) (string, error)
	RollbackTransaction(ctx context.Context, transactionID string) (string, error)
}

var _ TransactionalExecutor = (*StatementExecutor)(nil)

// StatementExecutor binds a ConnectionConfig to a Client. It keeps no
// per-call state, so one instance can serve concurrent callers.
type StatementExecutor struct {
	config ConnectionConfig
	client Client
	logger logrus.FieldLogger
}

type Option func(*StatementExecutor)

// WithLogger overrides the logrus standard logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *StatementExecutor) {
		e.logger = logger
	}
}

func NewStatementExecutor(config ConnectionConfig, client Client, opts ...Option) (*StatementExecutor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("data api client is required")
	}
	e := &StatementExecutor{
		config: config,
		client: client,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the connection settings the executor was built with.
func (e *StatementExecutor) Config() ConnectionConfig {
	return e.config
}

// Execute issues exactly one call to the remote service. Every failure comes
// back as an *ExecutionError wrapping the transport's error; nothing is retried.
func (e *StatementExecutor) Execute(ctx context.Context, stmt Statement) (*StatementResult, error) {
	if stmt.SQL == "" {
		return nil, &ExecutionError{Op: "execute statement", Err: ErrEmptyStatement}
	}

	fields := logrus.Fields{"sql": stmt.SQL}
	if len(stmt.Parameters) > 0 {
		fields["parameters"] = stmt.Parameters
	}
	if stmt.TransactionID != "" {
		fields["transactionId"] = stmt.TransactionID
	}
	e.logger.WithFields(fields).Debug("Running SQL statement")

	result, err := e.client.ExecuteStatement(ctx, Request{
		SecretARN:     e.config.SecretARN,
		Database:      e.config.Database,
		ResourceARN:   e.config.ResourceARN,
		SQL:           stmt.SQL,
		Parameters:    stmt.Parameters,
		TransactionID: stmt.TransactionID,
	})
	if err != nil {
		e.logger.WithField("errorClass", fmt.Sprintf("%T", err)).Debug("Error running SQL statement")
		return nil, &ExecutionError{Op: "execute statement", SQL: stmt.SQL, Err: err}
	}
	if result == nil {
		result = &StatementResult{}
	}
	return result, nil
}

func (e *StatementExecutor) BeginTransaction(ctx context.Context) (string, error) {
	id, err := e.client.BeginTransaction(ctx, e.transactionRequest(""))
	if err != nil {
		return "", &ExecutionError{Op: "begin transaction", Err: err}
	}
	e.logger.WithField("transactionId", id).Debug("Transaction started")
	return id, nil
}

func (e *StatementExecutor) CommitTransaction(ctx context.Context, transactionID string) (string, error) {
	status, err := e.client.CommitTransaction(ctx, e.transactionRequest(transactionID))
	if err != nil {
		return "", &ExecutionError{Op: "commit transaction", Err: err}
	}
	return status, nil
}

func (e *StatementExecutor) RollbackTransaction(ctx context.Context, transactionID string) (string, error) {
	status, err := e.client.RollbackTransaction(ctx, e.transactionRequest(transactionID))
	if err != nil {
		return "", &ExecutionError{Op: "rollback transaction", Err: err}
	}
	return status, nil
}

func (e *StatementExecutor) transactionRequest(transactionID string) TransactionRequest {
	return TransactionRequest{
		SecretARN:     e.config.SecretARN,
		Database:      e.config.Database,
		ResourceARN:   e.config.ResourceARN,
		TransactionID: transactionID,
	}
}
