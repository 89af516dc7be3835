package main

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cdkworkshop/accounts/shared/logger"
	"github.com/cdkworkshop/accounts/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// hopHeaders are connection-scoped and must not be forwarded.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

func main() {
	if err := logger.Configure(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "json")); err != nil {
		logrus.Fatalf("Invalid logging configuration: %v", err)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logrus.Fatal("JWT_SECRET environment variable is not set")
	}
	accountServiceURL := getEnv("ACCOUNT_SERVICE_URL", "http://localhost:8083")

	router := newRouter(accountServiceURL, []byte(secret), &http.Client{Timeout: 30 * time.Second})

	port := getEnv("PORT", "8080")
	logrus.WithField("port", port).Info("API Gateway starting")
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}

func newRouter(accountServiceURL string, jwtSecret []byte, client *http.Client) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "api-gateway"})
	})

	auth := middleware.AuthMiddleware(jwtSecret)
	router.GET("/hello", auth, proxyTo(client, accountServiceURL))
	router.GET("/user_account", auth, proxyTo(client, accountServiceURL))
	router.POST("/user_account", auth, proxyTo(client, accountServiceURL))

	return router
}

func proxyTo(client *http.Client, serviceURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewReader(bodyBytes))
		if err != nil {
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create request")
			return
		}

		// The Authorization header is forwarded: the account service checks the token again.
		for key, values := range c.Request.Header {
			if hopHeaders[key] {
				continue
			}
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		if username, ok := middleware.GetUsername(c); ok {
			req.Header.Set("X-Username", username)
		}

		resp, err := client.Do(req)
		if err != nil {
			logrus.WithError(err).WithField("target", targetURL).Error("Error proxying request")
			middleware.RespondWithError(c, http.StatusBadGateway, "Service unavailable")
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadGateway, "Failed to read response")
			return
		}

		for key, values := range resp.Header {
			if hopHeaders[key] || key == "Content-Length" {
				continue
			}
			for _, value := range values {
				c.Header(key, value)
			}
		}

		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		// Remove trailing slash if present
		return strings.TrimSuffix(value, "/")
	}
	return fallback
}
