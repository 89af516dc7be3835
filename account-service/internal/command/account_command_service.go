package command

import (
	"context"

	"github.com/cdkworkshop/accounts/shared/cqrs"
	"github.com/cdkworkshop/accounts/shared/dataapi"
	"github.com/cdkworkshop/accounts/shared/events"
	"github.com/sirupsen/logrus"
)

// AccountCreator is the write side of service.AccountService.
type AccountCreator interface {
	CreateAccount(ctx context.Context, handle string) (*dataapi.StatementResult, error)
	CreateAccounts(ctx context.Context, handles ...string) ([]*dataapi.StatementResult, error)
}

// AccountCache is the part of the read model a write must invalidate.
type AccountCache interface {
	InvalidateHandle(ctx context.Context, handle string)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) (string, error)
}

// AccountCommandService creates accounts and keeps the read model in sync.
// cache and publisher are optional.
type AccountCommandService struct {
	accounts  AccountCreator
	cache     AccountCache
	publisher EventPublisher
}

func NewAccountCommandService(accounts AccountCreator, cache AccountCache, publisher EventPublisher) *AccountCommandService {
	return &AccountCommandService{
		accounts:  accounts,
		cache:     cache,
		publisher: publisher,
	}
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*dataapi.StatementResult, error) {
	result, err := s.accounts.CreateAccount(ctx, cmd.Handle)
	if err != nil {
		return nil, err
	}
	s.accountCreated(ctx, cmd.Handle)
	return result, nil
}

func (s *AccountCommandService) ImportAccounts(ctx context.Context, cmd cqrs.ImportAccountsCommand) ([]*dataapi.StatementResult, error) {
	results, err := s.accounts.CreateAccounts(ctx, cmd.Handles...)
	if err != nil {
		return nil, err
	}
	for _, handle := range cmd.Handles {
		s.accountCreated(ctx, handle)
	}
	return results, nil
}

func (s *AccountCommandService) accountCreated(ctx context.Context, handle string) {
	if s.cache != nil {
		s.cache.InvalidateHandle(ctx, handle)
	}
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		Handle: handle,
	}); err != nil {
		logrus.WithError(err).WithField("handle", handle).Warn("Failed to publish account.created event")
	}
}

// HandleAccountEvent drops the cached lookup for a handle created by any
// instance, so caches stay coherent when the service is scaled out.
func (s *AccountCommandService) HandleAccountEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.AccountCreated || s.cache == nil {
		return nil
	}
	var data events.AccountCreatedEvent
	if err := events.Decode(event, &data); err != nil {
		return err
	}
	s.cache.InvalidateHandle(ctx, data.Handle)
	logrus.WithField("handle", data.Handle).Debug("Invalidated cached account lookup")
	return nil
}
