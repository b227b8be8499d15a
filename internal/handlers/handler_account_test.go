package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/core/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/SscSPs/estate_ledger/internal/handlers"
	"github.com/SscSPs/estate_ledger/internal/platform/config"
	"github.com/SscSPs/estate_ledger/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

const (
	testJWTSecret = "test-secret-key-that-is-long-enough"
	testIssuer    = "estate-ledger-test"
)

var clock = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func signToken(secret, issuer, subject string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		panic(err)
	}
	return signed
}

// --- Test Suite ---
type LedgerAPITestSuite struct {
	suite.Suite
	router   *gin.Engine
	token    string
	accounts map[string]dto.AccountResponse // by code
}

func (suite *LedgerAPITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	handlers.SetupValidator()
}

func (suite *LedgerAPITestSuite) SetupTest() {
	settings := services.DefaultLedgerSettings()
	settings.Now = func() time.Time { return clock }
	container := services.NewServiceContainer(
		memory.NewRepositoryProvider(memory.NewStore()),
		services.WithLedgerSettings(settings),
	)

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, &config.Config{JWTSecret: testJWTSecret, JWTIssuer: testIssuer}, container)
	suite.token = signToken(testJWTSecret, testIssuer, "user-42")
	suite.accounts = make(map[string]dto.AccountResponse)

	for _, acc := range []map[string]any{
		{"code": "1010", "name": "Bank", "accountType": "ASSET"},
		{"code": "1050", "name": "Trust Cash", "accountType": "ASSET", "isTrust": true},
		{"code": "1060", "name": "Trust Bank", "accountType": "ASSET", "isTrust": true},
		{"code": "1200", "name": "Accounts Receivable", "accountType": "ASSET"},
		{"code": "2100", "name": "Client Advances", "accountType": "LIABILITY"},
		{"code": "4000", "name": "Sales Revenue", "accountType": "REVENUE"},
	} {
		w := suite.do(http.MethodPost, "/api/v1/accounts", acc)
		suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
		var resp dto.AccountResponse
		suite.decode(w, &resp)
		suite.accounts[resp.Code] = resp
	}
}

func (suite *LedgerAPITestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	return suite.doWithToken(method, path, body, suite.token)
}

func (suite *LedgerAPITestSuite) doWithToken(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *LedgerAPITestSuite) decode(w *httptest.ResponseRecorder, out any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (suite *LedgerAPITestSuite) createDeal(amount string) dto.DealDetails {
	w := suite.do(http.MethodPost, "/api/v1/deals", map[string]any{
		"clientID": "cli-25-0001",
		"title":    "Plot 14, Phase 2",
		"amount":   amount,
		"installments": []map[string]any{
			{"amount": amount, "dueDate": clock.AddDate(0, 1, 0)},
		},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var details dto.DealDetails
	suite.decode(w, &details)
	return details
}

// --- Test Cases ---

func (suite *LedgerAPITestSuite) TestHealth() {
	w := suite.doWithToken(http.MethodGet, "/health", nil, "")
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *LedgerAPITestSuite) TestAuth() {
	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"wrong secret", signToken("another-secret-key-that-is-long", testIssuer, "user-42")},
		{"wrong issuer", signToken(testJWTSecret, "someone-else", "user-42")},
		{"no subject", signToken(testJWTSecret, testIssuer, "")},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.doWithToken(http.MethodGet, "/api/v1/accounts", nil, tt.token)
			suite.Equal(http.StatusUnauthorized, w.Code)
		})
	}
}

func (suite *LedgerAPITestSuite) TestAccounts() {
	w := suite.do(http.MethodPost, "/api/v1/accounts", map[string]any{"code": "1010", "name": "Bank again", "accountType": "ASSET"})
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/accounts", map[string]any{"code": "9000", "name": "Other", "accountType": "INCOME"})
	suite.Equal(http.StatusBadRequest, w.Code)
	var body struct {
		Details map[string]string `json:"details"`
	}
	suite.decode(w, &body)
	suite.Contains(body.Details, "accountType")

	w = suite.do(http.MethodGet, "/api/v1/accounts", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list []dto.AccountResponse
	suite.decode(w, &list)
	suite.Len(list, 6)
	suite.Equal("1010", list[0].Code)

	w = suite.do(http.MethodGet, "/api/v1/accounts/missing", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/account-roles/trust-bank", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var resolved dto.AccountResponse
	suite.decode(w, &resolved)
	suite.Equal("1060", resolved.Code)

	w = suite.do(http.MethodGet, "/api/v1/account-roles/vault", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPut, "/api/v1/account-roles", map[string]any{"role": "bank", "accountID": suite.accounts["1200"].AccountID})
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *LedgerAPITestSuite) TestJournalPosting() {
	bank, revenue := suite.accounts["1010"].AccountID, suite.accounts["4000"].AccountID
	entry := map[string]any{
		"naturalKey":  "opening:2025",
		"description": "Opening balance",
		"entryDate":   "2025-01-02T00:00:00Z",
		"lines": []map[string]any{
			{"accountID": bank, "debit": "1500.00"},
			{"accountID": revenue, "credit": "1500.00"},
		},
	}

	w := suite.do(http.MethodPost, "/api/v1/journals", entry)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var posted domain.JournalEntry
	suite.decode(w, &posted)
	suite.Equal("je-25-0001", posted.EntryNumber)

	w = suite.do(http.MethodPost, "/api/v1/journals", entry)
	suite.Equal(http.StatusConflict, w.Code)
	var dup map[string]string
	suite.decode(w, &dup)
	suite.Equal(posted.EntryID, dup["existingEntryID"])

	unbalanced := map[string]any{
		"naturalKey": "broken",
		"lines": []map[string]any{
			{"accountID": bank, "debit": "10"},
			{"accountID": revenue, "credit": "9"},
		},
	}
	w = suite.do(http.MethodPost, "/api/v1/journals", unbalanced)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/journals", map[string]any{"naturalKey": "one-line", "lines": []map[string]any{{"accountID": bank, "debit": "10"}}})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/accounts/"+bank+"/balance?asOf=2025-01-01", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var before domain.AccountBalance
	suite.decode(w, &before)
	suite.True(before.Balance.IsZero())

	w = suite.do(http.MethodGet, "/api/v1/accounts/"+bank+"/balance?asOf=2025-01-02", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var after domain.AccountBalance
	suite.decode(w, &after)
	suite.Equal("1500", after.Balance.String())

	w = suite.do(http.MethodGet, "/api/v1/accounts/"+bank+"/balance?asOf=yesterday", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/journals/"+posted.EntryID+"/reverse", map[string]any{"reason": "typo"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/v1/reports/trial-balance", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var tb domain.TrialBalance
	suite.decode(w, &tb)
	suite.True(tb.Balanced)
}

func (suite *LedgerAPITestSuite) TestPaymentLifecycle() {
	deal := suite.createDeal("1000")
	suite.Equal("deal-25-0001", deal.Deal.DealNumber)

	w := suite.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"dealID": deal.Deal.DealID,
		"amount": "1000",
		"type":   "full",
		"mode":   "bank",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var paid dto.PaymentResult
	suite.decode(w, &paid)
	suite.Equal("pay-25-0001", paid.Payment.PaymentNumber)
	suite.Equal(domain.StageClosedWon, paid.Deal.Stage)

	w = suite.do(http.MethodPost, "/api/v1/payments/"+paid.Payment.PaymentID+"/refunds", map[string]any{"amount": "1500", "reason": "too much"})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/payments/"+paid.Payment.PaymentID+"/refunds", map[string]any{"amount": "200", "reason": "discount"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var refund dto.PaymentResult
	suite.decode(w, &refund)
	suite.Equal(domain.StageClosing, refund.Deal.Stage)

	w = suite.do(http.MethodGet, "/api/v1/deals/"+deal.Deal.DealID+"/payments", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var payments []domain.Payment
	suite.decode(w, &payments)
	suite.Len(payments, 2)

	w = suite.do(http.MethodGet, "/api/v1/reports/clients/cli-25-0001/statement", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var st domain.PartyStatement
	suite.decode(w, &st)
	suite.Equal("200", st.ClosingBalance.String())

	w = suite.do(http.MethodGet, "/api/v1/payments/missing", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/payments", map[string]any{"dealID": deal.Deal.DealID, "amount": "0", "type": "full", "mode": "bank"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/payments", map[string]any{"dealID": deal.Deal.DealID, "amount": "10", "type": "refund", "mode": "bank"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *LedgerAPITestSuite) TestDealStages() {
	deal := suite.createDeal("5000")
	path := "/api/v1/deals/" + deal.Deal.DealID

	w := suite.do(http.MethodPost, path+"/stage", map[string]any{"stage": "negotiation"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, path+"/stage", map[string]any{"stage": "qualified"})
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodPost, path+"/stage", map[string]any{"stage": "archived"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, path+"/recompute", nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodDelete, path, nil)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.do(http.MethodGet, path, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *LedgerAPITestSuite) TestIdentifiers() {
	w := suite.do(http.MethodPost, "/api/v1/identifiers/prop/next", nil)
	suite.Require().Equal(http.StatusCreated, w.Code)
	var issued map[string]string
	suite.decode(w, &issued)
	suite.Equal("prop-25-0001", issued["identifier"])

	w = suite.do(http.MethodPost, "/api/v1/identifiers/nope/next", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/identifiers/validate", map[string]any{"prefix": "prop", "identifier": "prop-25-0009"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/identifiers/reserve", map[string]any{"prefix": "prop", "identifier": "TOWER-A-01"})
	suite.Equal(http.StatusCreated, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/identifiers/validate", map[string]any{"prefix": "prop", "identifier": "tower-a-01"})
	suite.Equal(http.StatusConflict, w.Code)
}

func TestLedgerAPI(t *testing.T) {
	suite.Run(t, new(LedgerAPITestSuite))
}
