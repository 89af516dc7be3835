// Package app wires the account service's dependencies from a Config. Every
// entry point (HTTP server, Lambda, CLI) builds the same graph through New.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/cdkworkshop/accounts/account-service/internal/command"
	"github.com/cdkworkshop/accounts/account-service/internal/config"
	"github.com/cdkworkshop/accounts/account-service/internal/query"
	"github.com/cdkworkshop/accounts/account-service/internal/repository"
	"github.com/cdkworkshop/accounts/account-service/internal/service"
	"github.com/cdkworkshop/accounts/shared/dataapi"
	"github.com/cdkworkshop/accounts/shared/events"
	sharedredis "github.com/cdkworkshop/accounts/shared/redis"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config   *config.Config
	Executor *dataapi.StatementExecutor
	Accounts *service.AccountService
	Commands *command.AccountCommandService
	Queries  *query.AccountQueryService

	redis   *sharedredis.Client
	closers []func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	client, err := a.newClient(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Executor, err = dataapi.NewStatementExecutor(cfg.Database, client)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Accounts = service.NewAccountService(a.Executor)

	var (
		cache     command.AccountCache
		lookups   query.AccountLookupCache
		publisher command.EventPublisher
	)
	if cfg.RedisEnabled() {
		a.redis, err = sharedredis.NewClient(ctx, cfg.RedisAddr, "", 0)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, a.redis.Close)

		readRepo := repository.NewAccountReadRepository(a.redis.Client, cfg.CacheTTL)
		cache, lookups = readRepo, readRepo
		publisher = events.NewPublisher(a.redis.Client)
	}

	a.Commands = command.NewAccountCommandService(a.Accounts, cache, publisher)
	a.Queries = query.NewAccountQueryService(a.Accounts, lookups)

	logrus.WithFields(logrus.Fields{
		"backend":  cfg.Backend,
		"database": cfg.Database.Database,
		"redis":    cfg.RedisEnabled(),
	}).Info("Account service dependencies ready")
	return a, nil
}

func (a *App) newClient(ctx context.Context) (dataapi.Client, error) {
	switch a.Config.Backend {
	case config.BackendRDSData:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return dataapi.NewRDSDataClient(awsCfg), nil
	case config.BackendPostgres:
		pg, err := dataapi.OpenPostgres(ctx, a.Config.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", a.Config.Backend)
	}
}

// StartSubscriber consumes account events until ctx is done so this
// instance's cache drops lookups invalidated elsewhere. No-op without Redis.
func (a *App) StartSubscriber(ctx context.Context) {
	if a.redis == nil {
		return
	}
	hostname, _ := os.Hostname()
	subscriber := events.NewSubscriber(a.redis.Client, events.SubscriberConfig{
		// One group per instance: every instance must see every event.
		Group:    "account-service-" + hostname,
		Consumer: "account-consumer-" + hostname,
		Stream:   events.AccountEventsStream,
		Handler:  a.Commands.HandleAccountEvent,
	})
	go func() {
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("Subscriber stopped")
		}
	}()
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
