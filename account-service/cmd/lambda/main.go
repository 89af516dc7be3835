package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cdkworkshop/accounts/account-service/internal/app"
	"github.com/cdkworkshop/accounts/account-service/internal/config"
	"github.com/cdkworkshop/accounts/account-service/internal/handler"
	"github.com/cdkworkshop/accounts/shared/logger"
	"github.com/sirupsen/logrus"
)

// Dependencies are built once per execution environment and reused across
// invocations.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatalf("Invalid logging configuration: %v", err)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialise account service: %v", err)
	}

	h := handler.NewLambdaHandler(application.Commands, application.Queries)
	lambda.Start(h.Handle)
}
