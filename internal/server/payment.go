package server

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

// maxWebhookBody bounds provider notifications read into memory.
const maxWebhookBody = 1 << 20

type createPaymentRequest struct {
	OrderID   string `json:"orderId"`
	Provider  string `json:"provider"`
	Method    string `json:"method"`
	ReturnURL string `json:"returnUrl"`
	CancelURL string `json:"cancelUrl"`
}

func (s *Server) ListPaymentMethods(c *gin.Context) {
	methods, err := s.paymentSvc.ListAvailableMethods(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": methods})
}

func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	switch {
	case strings.TrimSpace(req.OrderID) == "":
		AbortWithError(c, newValidationError("orderId", "required", "orderId is required"))
		return
	case strings.TrimSpace(req.Provider) == "":
		AbortWithError(c, newValidationError("provider", "required", "provider is required"))
		return
	case strings.TrimSpace(req.Method) == "":
		AbortWithError(c, newValidationError("method", "required", "method is required"))
		return
	}

	for _, field := range []struct{ name, value string }{
		{"returnUrl", req.ReturnURL},
		{"cancelUrl", req.CancelURL},
	} {
		if field.value == "" {
			continue
		}
		parsed, err := url.Parse(field.value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			AbortWithError(c, newValidationError(field.name, "invalid_url", field.name+" must be an absolute URL"))
			return
		}
	}

	resp, err := s.paymentSvc.CreatePayment(c.Request.Context(), paymentdomain.CreatePaymentInput{
		OrderID:   req.OrderID,
		Provider:  req.Provider,
		Method:    req.Method,
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) VerifyPayment(c *gin.Context) {
	transactionID := strings.TrimSpace(c.Param("transactionId"))
	if transactionID == "" {
		AbortWithError(c, newValidationError("transactionId", "required", "transactionId is required"))
		return
	}

	resp, err := s.paymentSvc.VerifyPayment(c.Request.Context(), transactionID, c.Query("provider"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// PaymentWebhook answers 200 for every delivery from a known provider so the
// provider does not retry; the body tells what happened.
func (s *Server) PaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	if provider == "" {
		AbortWithError(c, newValidationError("provider", "required", "provider is required"))
		return
	}

	// One byte past the limit tells an oversized body from one that fits.
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(body) > maxWebhookBody {
		AbortWithError(c, ErrPayloadTooLarge)
		return
	}

	ack, err := s.paymentSvc.IngestWebhook(c.Request.Context(), provider, paymentdomain.WebhookPayload{
		Body:    body,
		Headers: c.Request.Header.Clone(),
		Query:   c.Request.URL.Query(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ack)
}

// PaymentRedirect sends the shopper back to the storefront. The redirect is
// not payment proof and changes nothing.
func (s *Server) PaymentRedirect(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	result, err := s.paymentSvc.ResolveRedirect(c.Request.Context(), provider, paymentdomain.WebhookPayload{
		Headers: c.Request.Header.Clone(),
		Query:   c.Request.URL.Query(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, s.redirectLocation(result))
}

func (s *Server) redirectLocation(result *paymentdomain.RedirectResult) string {
	path := "/checkout/cancel"
	if result.Success {
		path = "/checkout/success"
	}
	query := url.Values{}
	if result.OrderID != "" {
		query.Set("orderId", result.OrderID)
	}
	if result.TransactionID != "" {
		query.Set("transactionId", result.TransactionID)
	}
	location := strings.TrimRight(s.cfg.URLs.StorefrontURL, "/") + path
	if len(query) > 0 {
		location += "?" + query.Encode()
	}
	return location
}
