// Package service maps account operations onto parameterized statements run
// through a dataapi executor, and maps result rows back into accounts.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cdkworkshop/accounts/shared/dataapi"
	"github.com/cdkworkshop/accounts/shared/models"
	"github.com/sirupsen/logrus"
)

const (
	createAccountSQL = `INSERT INTO accounts (handle) VALUES (:handle)`
	getAccountSQL    = `SELECT * FROM accounts WHERE handle = :handle`
)

// ErrMalformedRow is returned when a result row cannot be read as an account.
var ErrMalformedRow = errors.New("malformed account row")

// AccountService holds no per-call state and is safe for concurrent use.
type AccountService struct {
	executor dataapi.TransactionalExecutor
}

func NewAccountService(executor dataapi.TransactionalExecutor) *AccountService {
	return &AccountService{executor: executor}
}

// CreateAccount inserts a handle and returns the raw execution result.
// Executor errors are returned unchanged.
func (s *AccountService) CreateAccount(ctx context.Context, handle string) (*dataapi.StatementResult, error) {
	return s.createAccount(ctx, handle, "")
}

func (s *AccountService) createAccount(ctx context.Context, handle, transactionID string) (*dataapi.StatementResult, error) {
	return s.executor.Execute(ctx, dataapi.Statement{
		SQL:           createAccountSQL,
		Parameters:    []dataapi.NamedParameter{dataapi.StringParam("handle", handle)},
		TransactionID: transactionID,
	})
}

// GetAccount returns every account stored under handle, in database order.
// No match yields an empty slice and a nil error.
func (s *AccountService) GetAccount(ctx context.Context, handle string) ([]models.Account, error) {
	result, err := s.executor.Execute(ctx, dataapi.Statement{
		SQL:        getAccountSQL,
		Parameters: []dataapi.NamedParameter{dataapi.StringParam("handle", handle)},
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]models.Account, 0, len(result.Records))
	for i, row := range result.Records {
		account, err := accountFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// CreateAccounts inserts all handles in one transaction. The first failure
// rolls the transaction back and is returned; nothing is committed.
func (s *AccountService) CreateAccounts(ctx context.Context, handles ...string) ([]*dataapi.StatementResult, error) {
	if len(handles) == 0 {
		return nil, nil
	}

	txID, err := s.executor.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*dataapi.StatementResult, 0, len(handles))
	for _, handle := range handles {
		result, err := s.createAccount(ctx, handle, txID)
		if err != nil {
			s.rollback(ctx, txID)
			return nil, err
		}
		results = append(results, result)
	}

	if _, err := s.executor.CommitTransaction(ctx, txID); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *AccountService) rollback(ctx context.Context, txID string) {
	if _, err := s.executor.RollbackTransaction(ctx, txID); err != nil {
		logrus.WithError(err).WithField("transactionId", txID).Error("Failed to roll back transaction")
	}
}

// accountFromRow reads field 0 as the handle and field 1 as the name. A NULL
// name is read as empty: accounts are created with a handle only.
func accountFromRow(row dataapi.Row) (models.Account, error) {
	if len(row) < 2 {
		return models.Account{}, fmt.Errorf("%w: expected at least 2 fields, got %d", ErrMalformedRow, len(row))
	}
	handle, ok := dataapi.AsString(row[0])
	if !ok {
		return models.Account{}, fmt.Errorf("%w: handle is %T, not a string", ErrMalformedRow, row[0])
	}
	var name string
	if !dataapi.IsNull(row[1]) {
		name, ok = dataapi.AsString(row[1])
		if !ok {
			return models.Account{}, fmt.Errorf("%w: name is %T, not a string", ErrMalformedRow, row[1])
		}
	}
	return models.Account{Handle: handle, Name: name}, nil
}
