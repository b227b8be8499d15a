package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/SscSPs/estate_ledger/internal/handlers"
	"github.com/SscSPs/estate_ledger/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock PaymentService ---
type MockPaymentService struct {
	mock.Mock
}

var _ portssvc.PaymentSvc = (*MockPaymentService)(nil)

func (m *MockPaymentService) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, userID string) (*dto.PaymentResult, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaymentResult), args.Error(1)
}

func (m *MockPaymentService) RefundPayment(ctx context.Context, req dto.RefundPaymentRequest, userID string) (*dto.PaymentResult, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaymentResult), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) ListDealPayments(ctx context.Context, dealID string) ([]domain.Payment, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func newMockedRouter(payments portssvc.PaymentSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handlers.SetupValidator()
	r := gin.New()
	handlers.RegisterRoutes(r, &config.Config{JWTSecret: testJWTSecret, JWTIssuer: testIssuer}, &portssvc.ServiceContainer{Payment: payments})
	return r
}

func TestGetPayment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
		retryAfter bool
	}{
		{"not found", fmt.Errorf("lookup: %w", apperrors.ErrNotFound), http.StatusNotFound, "resource not found", false},
		{"validation", apperrors.NewValidationError("bad id"), http.StatusBadRequest, "bad id", false},
		{"sequence exhausted", fmt.Errorf("%w: pay/2025", apperrors.ErrIdentifierExhaustion), http.StatusServiceUnavailable, "retries exhausted", true},
		{"storage down", apperrors.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage unavailable", true},
		{"refund bound", apperrors.ErrInsufficientCounterpartAmount, http.StatusUnprocessableEntity, "refund exceeds", false},
		{"unexpected", errors.New("pq: connection reset by peer"), http.StatusInternalServerError, "Failed to retrieve payment", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPaymentService)
			svc.On("GetPayment", mock.Anything, "pay-1").Return(nil, tt.err).Once()
			router := newMockedRouter(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/pay-1", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(testJWTSecret, testIssuer, "user-42"))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantBody)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After") != "")
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestRefundPayment_PassesPathAndActor(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("RefundPayment", mock.Anything, mock.MatchedBy(func(r dto.RefundPaymentRequest) bool {
		return r.OriginalPaymentID == "pay-7" && r.Amount.String() == "125.5" && r.Reason == "parking"
	}), "user-42").Return(&dto.PaymentResult{Payment: domain.Payment{PaymentID: "ref-1", PaymentNumber: "pay-25-0008"}}, nil).Once()
	router := newMockedRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/pay-7/refunds", strings.NewReader(`{"amount":"125.50","reason":"parking"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(testJWTSecret, testIssuer, "user-42"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "pay-25-0008")
	svc.AssertExpectations(t)
}

func TestRefundPayment_RequiresReason(t *testing.T) {
	svc := new(MockPaymentService)
	router := newMockedRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/pay-7/refunds", strings.NewReader(`{"amount":"10"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(testJWTSecret, testIssuer, "user-42"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "reason")
	svc.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything, mock.Anything)
}
