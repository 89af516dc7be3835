package repository

import (
	"context"
	"time"

	"github.com/cdkworkshop/accounts/shared/models"
	sharedredis "github.com/cdkworkshop/accounts/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const accountLookupKeyPrefix = "account:lookup:"

// AccountReadRepository caches GetAccount results in Redis, keyed by handle.
// Empty lookups are cached too, so a create must invalidate its handle.
type AccountReadRepository struct {
	cache *sharedredis.ViewCache[[]models.Account]
}

func NewAccountReadRepository(redisClient *goredis.Client, ttl time.Duration) *AccountReadRepository {
	return &AccountReadRepository{
		cache: sharedredis.NewViewCache[[]models.Account](redisClient, accountLookupKeyPrefix, ttl),
	}
}

// GetByHandle returns the cached accounts for handle, if present.
func (r *AccountReadRepository) GetByHandle(ctx context.Context, handle string) ([]models.Account, bool) {
	accounts, ok := r.cache.Get(ctx, handle)
	if !ok {
		return nil, false
	}
	if *accounts == nil {
		return []models.Account{}, true
	}
	return *accounts, true
}

// CacheAccounts stores or refreshes the lookup result for handle.
func (r *AccountReadRepository) CacheAccounts(ctx context.Context, handle string, accounts []models.Account) {
	r.cache.Set(ctx, handle, &accounts)
}

// InvalidateHandle drops the cached lookup for handle.
func (r *AccountReadRepository) InvalidateHandle(ctx context.Context, handle string) {
	r.cache.Delete(ctx, handle)
}
