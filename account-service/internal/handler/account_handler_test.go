package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cdkworkshop/accounts/shared/cqrs"
	"github.com/cdkworkshop/accounts/shared/dataapi"
	"github.com/cdkworkshop/accounts/shared/models"
	"github.com/gin-gonic/gin"
)

// ---- mock implementations ----

type mockAccountCommander struct {
	createFn func(cqrs.CreateAccountCommand) (*dataapi.StatementResult, error)
}

func (m *mockAccountCommander) CreateAccount(_ context.Context, cmd cqrs.CreateAccountCommand) (*dataapi.StatementResult, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockAccountQuerier struct {
	getFn func(cqrs.GetAccountQuery) ([]models.Account, error)
}

func (m *mockAccountQuerier) GetAccount(_ context.Context, q cqrs.GetAccountQuery) ([]models.Account, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newAccountTestRouter(cmds AccountCommander, qrys AccountQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAccountHandler(cmds, qrys)
	r.GET("/hello", h.Hello)
	r.POST("/user_account", h.CreateAccount)
	r.GET("/user_account", h.GetAccount)
	return r
}

func acctDoRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var aTestInsertResult = &dataapi.StatementResult{Records: []dataapi.Row{}, NumberOfRecordsUpdated: 1}

var aTestAccounts = []models.Account{{Handle: "alice", Name: "Alice A."}}

// ---- tests ----

func TestCreateAccount(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateAccountCommand) (*dataapi.StatementResult, error)
		expectedStatus int
	}{
		{
			name: "success - create account",
			body: map[string]interface{}{"handle": "alice"},
			createFn: func(cmd cqrs.CreateAccountCommand) (*dataapi.StatementResult, error) {
				if cmd.Handle != "alice" {
					return nil, fmt.Errorf("unexpected handle %q", cmd.Handle)
				}
				return aTestInsertResult, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - missing handle",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - handle with whitespace",
			body:           map[string]interface{}{"handle": "al ice"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "server error - execution failed",
			body:           map[string]interface{}{"handle": "alice"},
			createFn:       func(cqrs.CreateAccountCommand) (*dataapi.StatementResult, error) { return nil, fmt.Errorf("duplicate key") },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockAccountCommander{createFn: tt.createFn}
			router := newAccountTestRouter(cmds, &mockAccountQuerier{})
			w := acctDoRequest(router, http.MethodPost, "/user_account", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateAccountReturnsRawResult(t *testing.T) {
	cmds := &mockAccountCommander{createFn: func(cqrs.CreateAccountCommand) (*dataapi.StatementResult, error) {
		return aTestInsertResult, nil
	}}
	router := newAccountTestRouter(cmds, &mockAccountQuerier{})
	w := acctDoRequest(router, http.MethodPost, "/user_account", map[string]interface{}{"handle": "alice"})

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["numberOfRecordsUpdated"] != float64(1) {
		t.Errorf("expected numberOfRecordsUpdated 1, got %v", body["numberOfRecordsUpdated"])
	}
}

func TestCreateAccountDoesNotLeakErrorDetail(t *testing.T) {
	cmds := &mockAccountCommander{createFn: func(cqrs.CreateAccountCommand) (*dataapi.StatementResult, error) {
		return nil, fmt.Errorf("password authentication failed for user admin")
	}}
	router := newAccountTestRouter(cmds, &mockAccountQuerier{})
	w := acctDoRequest(router, http.MethodPost, "/user_account", map[string]interface{}{"handle": "alice"})
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("expected generic error body, got %s", w.Body.String())
	}
}

func TestGetAccount(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		getFn          func(cqrs.GetAccountQuery) ([]models.Account, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success - fetch account",
			url:  "/user_account?handle=alice",
			getFn: func(q cqrs.GetAccountQuery) ([]models.Account, error) {
				if q.Handle != "alice" {
					return nil, fmt.Errorf("unexpected handle %q", q.Handle)
				}
				return aTestAccounts, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"handle":"alice","name":"Alice A."}]`,
		},
		{
			name:           "success - no matching account",
			url:            "/user_account?handle=nobody",
			getFn:          func(cqrs.GetAccountQuery) ([]models.Account, error) { return []models.Account{}, nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name:           "bad request - missing handle",
			url:            "/user_account",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "server error - timeout",
			url:            "/user_account?handle=alice",
			getFn:          func(cqrs.GetAccountQuery) ([]models.Account, error) { return nil, fmt.Errorf("timeout") },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{getFn: tt.getFn})
			w := acctDoRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedBody != "" && w.Body.String() != tt.expectedBody {
				t.Errorf("[%s] expected body %s got %s", tt.name, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestHello(t *testing.T) {
	router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{})
	w := acctDoRequest(router, http.MethodGet, "/hello", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var msg string
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("expected JSON string body: %v", err)
	}
	if msg != "Hello, world! You have hit /hello\n" {
		t.Errorf("unexpected greeting %q", msg)
	}
}
