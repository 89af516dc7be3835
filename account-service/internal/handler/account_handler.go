package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cdkworkshop/accounts/shared/cqrs"
	"github.com/cdkworkshop/accounts/shared/dataapi"
	"github.com/cdkworkshop/accounts/shared/middleware"
	"github.com/cdkworkshop/accounts/shared/models"
	"github.com/cdkworkshop/accounts/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccountCommander defines the write-side operations used by the handlers.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*dataapi.StatementResult, error)
}

// AccountQuerier defines the read-side operations used by the handlers.
type AccountQuerier interface {
	GetAccount(context.Context, cqrs.GetAccountQuery) ([]models.Account, error)
}

// AccountHandler handles user account HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

type CreateAccountRequest struct {
	Handle string `json:"handle" validate:"required,handle"`
}

type GetAccountRequest struct {
	Handle string `form:"handle" validate:"required,handle"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Handle = utils.NormalizeHandle(req.Handle)
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	result, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{Handle: req.Handle})
	if err != nil {
		_ = c.Error(err)
		logrus.WithError(err).WithField("handle", req.Handle).Error("Failed to create account")
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	var req GetAccountRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	req.Handle = utils.NormalizeHandle(req.Handle)
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	accounts, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{Handle: req.Handle})
	if err != nil {
		_ = c.Error(err)
		logrus.WithError(err).WithField("handle", req.Handle).Error("Failed to get account")
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get account")
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// Hello echoes the requested path; used as a smoke test behind auth.
func (h *AccountHandler) Hello(c *gin.Context) {
	body, _ := json.Marshal(helloMessage(c.Request.URL.Path))
	c.Data(http.StatusOK, "application/json", body)
}

func helloMessage(path string) string {
	return fmt.Sprintf("Hello, world! You have hit %s\n", path)
}
