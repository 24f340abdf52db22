package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/paygate/internal/observability/logger"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("not_found")
	ErrRateLimited = errors.New("rate_limited")
	ErrInternal    = errors.New("internal_error")
	// ErrPayloadTooLarge is returned for webhook bodies over maxWebhookBody.
	ErrPayloadTooLarge = errors.New("payload_too_large")
	errInvalidInput    = errors.New("invalid_request")
)

type errorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type validationError struct {
	field   string
	code    string
	message string
}

func (e *validationError) Error() string { return e.message }

func (e *validationError) Unwrap() error { return errInvalidInput }

func newValidationError(field, code, message string) error {
	return &validationError{field: field, code: code, message: message}
}

func invalidRequestError() error {
	return newValidationError("", "invalid_request", "invalid request body")
}

type errorMapping struct {
	status  int
	kind    string
	message string
}

var errorMappings = []struct {
	err error
	errorMapping
}{
	{paymentdomain.ErrInvalidOrder, errorMapping{http.StatusBadRequest, "invalid_request_error", "orderId is required"}},
	{paymentdomain.ErrInvalidProvider, errorMapping{http.StatusBadRequest, "invalid_request_error", "provider is required"}},
	{paymentdomain.ErrInvalidMethod, errorMapping{http.StatusBadRequest, "invalid_request_error", "payment method is not offered by provider"}},
	{paymentdomain.ErrInvalidTransaction, errorMapping{http.StatusBadRequest, "invalid_request_error", "transaction id is invalid"}},
	{paymentdomain.ErrInvalidRequest, errorMapping{http.StatusBadRequest, "invalid_request_error", "invalid request"}},
	{paymentdomain.ErrUnknownProvider, errorMapping{http.StatusBadRequest, "invalid_request_error", "unknown payment provider"}},
	{paymentdomain.ErrAmbiguousProvider, errorMapping{http.StatusBadRequest, "invalid_request_error", "provider could not be determined from transaction id"}},
	{paymentdomain.ErrOrderNotFound, errorMapping{http.StatusNotFound, "not_found_error", "order not found"}},
	{paymentdomain.ErrCustomerNotFound, errorMapping{http.StatusNotFound, "not_found_error", "customer not found"}},
	{ErrNotFound, errorMapping{http.StatusNotFound, "not_found_error", "resource not found"}},
	{paymentdomain.ErrOrderAlreadyPaid, errorMapping{http.StatusConflict, "conflict_error", "order is already paid"}},
	{paymentdomain.ErrConcurrentUpdate, errorMapping{http.StatusConflict, "conflict_error", "order was updated concurrently, retry"}},
	{ErrPayloadTooLarge, errorMapping{http.StatusRequestEntityTooLarge, "invalid_request_error", "request body is too large"}},
	{ErrRateLimited, errorMapping{http.StatusTooManyRequests, "rate_limit_error", "too many requests"}},
	{paymentdomain.ErrProviderTimeout, errorMapping{http.StatusServiceUnavailable, "provider_error", "payment provider timed out"}},
	{paymentdomain.ErrProviderTransport, errorMapping{http.StatusBadGateway, "provider_error", "payment provider unavailable"}},
}

// AbortWithError writes the JSON error envelope for err and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		err = ErrInternal
	}
	_ = c.Error(err)

	var verr *validationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errorBody{
			Type:    "invalid_request_error",
			Code:    verr.code,
			Message: verr.message,
			Field:   verr.field,
		}})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.AbortWithStatusJSON(m.status, gin.H{"error": errorBody{
				Type:    m.kind,
				Code:    m.err.Error(),
				Message: m.message,
			}})
			return
		}
	}

	logger.FromContext(c.Request.Context()).Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errorBody{
		Type:    "api_error",
		Code:    ErrInternal.Error(),
		Message: "internal server error",
	}})
}
