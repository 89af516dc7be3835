package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/cdkworkshop/accounts/shared/cqrs"
	"github.com/cdkworkshop/accounts/shared/models"
)

type mockAccountGetter struct {
	calls int
	getFn func(string) ([]models.Account, error)
}

func (m *mockAccountGetter) GetAccount(_ context.Context, handle string) ([]models.Account, error) {
	m.calls++
	return m.getFn(handle)
}

type mockLookupCache struct {
	entries map[string][]models.Account
}

func (m *mockLookupCache) GetByHandle(_ context.Context, handle string) ([]models.Account, bool) {
	accounts, ok := m.entries[handle]
	return accounts, ok
}

func (m *mockLookupCache) CacheAccounts(_ context.Context, handle string, accounts []models.Account) {
	m.entries[handle] = accounts
}

var alice = []models.Account{{Handle: "alice", Name: "Alice A."}}

func TestGetAccountWarmsCache(t *testing.T) {
	getter := &mockAccountGetter{getFn: func(string) ([]models.Account, error) { return alice, nil }}
	cache := &mockLookupCache{entries: map[string][]models.Account{}}
	svc := NewAccountQueryService(getter, cache)

	for i := 0; i < 2; i++ {
		got, err := svc.GetAccount(context.Background(), cqrs.GetAccountQuery{Handle: "alice"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, alice) {
			t.Errorf("expected %v, got %v", alice, got)
		}
	}
	if getter.calls != 1 {
		t.Errorf("expected one database lookup, got %d", getter.calls)
	}
}

func TestGetAccountWithoutCache(t *testing.T) {
	getter := &mockAccountGetter{getFn: func(string) ([]models.Account, error) { return []models.Account{}, nil }}
	svc := NewAccountQueryService(getter, nil)

	got, err := svc.GetAccount(context.Background(), cqrs.GetAccountQuery{Handle: "nobody"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestGetAccountErrorIsNotCached(t *testing.T) {
	cause := errors.New("timeout")
	getter := &mockAccountGetter{getFn: func(string) ([]models.Account, error) { return nil, cause }}
	cache := &mockLookupCache{entries: map[string][]models.Account{}}
	svc := NewAccountQueryService(getter, cache)

	_, err := svc.GetAccount(context.Background(), cqrs.GetAccountQuery{Handle: "alice"})
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to propagate, got %v", err)
	}
	if _, ok := cache.entries["alice"]; ok {
		t.Errorf("expected failed lookup not to be cached")
	}
}
