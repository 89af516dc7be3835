package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cdkworkshop/accounts/account-service/internal/app"
	"github.com/cdkworkshop/accounts/account-service/internal/config"
	"github.com/cdkworkshop/accounts/account-service/internal/handler"
	"github.com/cdkworkshop/accounts/shared/logger"
	"github.com/cdkworkshop/accounts/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatalf("Invalid logging configuration: %v", err)
	}
	jwtSecret, err := cfg.RequireJWTSecret()
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialise account service: %v", err)
	}
	defer application.Close()

	application.StartSubscriber(ctx)

	accountHandler := handler.NewAccountHandler(application.Commands, application.Queries)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := router.Group("", middleware.AuthMiddleware(jwtSecret))
	{
		authed.GET("/hello", accountHandler.Hello)
		authed.POST("/user_account", accountHandler.CreateAccount)
		authed.GET("/user_account", accountHandler.GetAccount)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("Account service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("Server failed: %v", err)
			cancel()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logrus.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Graceful shutdown failed: %v", err)
		os.Exit(1)
	}
}
