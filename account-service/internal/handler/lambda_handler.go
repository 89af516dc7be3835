package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cdkworkshop/accounts/shared/cqrs"
	"github.com/cdkworkshop/accounts/shared/middleware"
	"github.com/cdkworkshop/accounts/shared/utils"
	"github.com/sirupsen/logrus"
)

// LambdaHandler serves the same routes as AccountHandler behind an API
// Gateway proxy integration. Authorization happens in API Gateway.
type LambdaHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

func NewLambdaHandler(commands AccountCommander, queries AccountQuerier) *LambdaHandler {
	return &LambdaHandler{commands: commands, queries: queries}
}

// Handle never returns an error: failures become 4xx/5xx envelopes.
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logrus.WithFields(logrus.Fields{
		"method":    req.HTTPMethod,
		"path":      req.Path,
		"requestId": req.RequestContext.RequestID,
	}).Info("Event received")

	switch {
	case req.HTTPMethod == http.MethodGet && req.Path == "/hello":
		return respond(http.StatusOK, helloMessage(req.Path)), nil
	case req.HTTPMethod == http.MethodGet && req.Path == "/user_account":
		return h.getAccount(ctx, req), nil
	case req.HTTPMethod == http.MethodPost && req.Path == "/user_account":
		return h.createAccount(ctx, req), nil
	default:
		return respond(http.StatusNotFound, map[string]string{"message": "Route not found"}), nil
	}
}

func (h *LambdaHandler) createAccount(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var body CreateAccountRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return respond(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	body.Handle = utils.NormalizeHandle(body.Handle)
	if validationErrors := middleware.ValidateRequest(body); validationErrors != nil {
		return respond(http.StatusBadRequest, middleware.BadRequestErrorResponse{
			Message: "Invalid request data",
			Details: validationErrors,
		})
	}

	result, err := h.commands.CreateAccount(ctx, cqrs.CreateAccountCommand{Handle: body.Handle})
	if err != nil {
		logrus.WithError(err).WithField("handle", body.Handle).Error("Failed to create account")
		return respond(http.StatusInternalServerError, map[string]string{"message": "Failed to create account"})
	}
	return respond(http.StatusOK, result)
}

func (h *LambdaHandler) getAccount(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	query := GetAccountRequest{Handle: utils.NormalizeHandle(req.QueryStringParameters["handle"])}
	if validationErrors := middleware.ValidateRequest(query); validationErrors != nil {
		return respond(http.StatusBadRequest, middleware.BadRequestErrorResponse{
			Message: "Invalid request data",
			Details: validationErrors,
		})
	}

	accounts, err := h.queries.GetAccount(ctx, cqrs.GetAccountQuery{Handle: query.Handle})
	if err != nil {
		logrus.WithError(err).WithField("handle", query.Handle).Error("Failed to get account")
		return respond(http.StatusInternalServerError, map[string]string{"message": "Failed to get account"})
	}
	return respond(http.StatusOK, accounts)
}

func respond(status int, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode response")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"message":"Failed to encode response"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
