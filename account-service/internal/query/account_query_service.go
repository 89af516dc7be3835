package query

import (
	"context"

	"github.com/cdkworkshop/accounts/shared/cqrs"
	"github.com/cdkworkshop/accounts/shared/models"
)

// AccountGetter is the read side of service.AccountService.
type AccountGetter interface {
	GetAccount(ctx context.Context, handle string) ([]models.Account, error)
}

type AccountLookupCache interface {
	GetByHandle(ctx context.Context, handle string) ([]models.Account, bool)
	CacheAccounts(ctx context.Context, handle string, accounts []models.Account)
}

type AccountQueryService struct {
	accounts AccountGetter
	cache    AccountLookupCache
}

// NewAccountQueryService builds the read side; cache may be nil.
func NewAccountQueryService(accounts AccountGetter, cache AccountLookupCache) *AccountQueryService {
	return &AccountQueryService{accounts: accounts, cache: cache}
}

// GetAccount reads through the cache, falling back to the database and
// warming the cache on a miss.
func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) ([]models.Account, error) {
	if s.cache != nil {
		if accounts, ok := s.cache.GetByHandle(ctx, q.Handle); ok {
			return accounts, nil
		}
	}

	accounts, err := s.accounts.GetAccount(ctx, q.Handle)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.CacheAccounts(ctx, q.Handle, accounts)
	}
	return accounts, nil
}
