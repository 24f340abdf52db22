package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	customerdomain "github.com/smallbiznis/paygate/internal/customer/domain"
	"github.com/smallbiznis/paygate/internal/observability/logger"
	orderdomain "github.com/smallbiznis/paygate/internal/order/domain"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"go.uber.org/zap"
)

func (s *Service) CreatePayment(ctx context.Context, input paymentdomain.CreatePaymentInput) (*paymentdomain.PaymentCreationResult, error) {
	input.OrderID = strings.TrimSpace(input.OrderID)
	input.Provider = strings.ToLower(strings.TrimSpace(input.Provider))
	input.Method = strings.TrimSpace(input.Method)
	switch {
	case input.OrderID == "":
		return nil, paymentdomain.ErrInvalidOrder
	case input.Provider == "":
		return nil, paymentdomain.ErrInvalidProvider
	case input.Method == "":
		return nil, paymentdomain.ErrInvalidMethod
	}

	adapter, err := s.registry.Adapter(input.Provider)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, s.db, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, paymentdomain.ErrOrderNotFound
	}
	switch order.Payment.Status {
	case paymentdomain.PaymentStatusCompleted, paymentdomain.PaymentStatusRefunded:
		return nil, paymentdomain.ErrOrderAlreadyPaid
	}

	customer, err := s.customers.FindByID(ctx, s.db, order.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, paymentdomain.ErrCustomerNotFound
	}
	if !s.registry.SupportsMethod(input.Provider, input.Method) {
		return nil, paymentdomain.ErrInvalidMethod
	}

	req := s.buildRequest(order, customer, input)
	log := logger.With(s.log, ctx).With(
		zap.String("provider", input.Provider),
		zap.String("method", input.Method),
		zap.String("order_id", order.ID),
	)

	var result *paymentdomain.PaymentCreationResult
	err = s.callProvider(ctx, input.Provider, "create_payment", func(callCtx context.Context) error {
		var callErr error
		result, callErr = adapter.CreatePayment(callCtx, req)
		return callErr
	})
	if err != nil {
		s.metrics.IncPaymentCreated(input.Provider, "error")
		log.Warn("payment creation failed", zap.Error(err))
		return nil, err
	}
	if result == nil {
		s.metrics.IncPaymentCreated(input.Provider, "error")
		return nil, &paymentdomain.ProviderError{Provider: input.Provider, Op: "create_payment", Err: errors.New("empty result")}
	}
	if result.Provider == "" {
		result.Provider = input.Provider
	}
	if !result.Success {
		s.metrics.IncPaymentCreated(input.Provider, "declined")
		log.Info("payment declined by provider", zap.String("reason", result.Error))
		return result, nil
	}

	persistCtx := context.WithoutCancel(ctx)
	err = s.orders.SetPayment(persistCtx, s.db, order.ID, orderdomain.Payment{
		Provider:        input.Provider,
		Method:          input.Method,
		Status:          paymentdomain.PaymentStatusPending,
		TransactionID:   result.TransactionID,
		ReferenceNumber: result.ReferenceNumber,
	}, s.clock.Now())
	if err != nil {
		s.metrics.IncPaymentCreated(input.Provider, "error")
		log.Error("failed to persist payment attempt",
			zap.String("transaction_id", result.TransactionID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncPaymentCreated(input.Provider, "ok")
	log.Info("payment created", zap.String("transaction_id", result.TransactionID))
	return result, nil
}

func (s *Service) buildRequest(order *orderdomain.Order, customer *customerdomain.Customer, input paymentdomain.CreatePaymentInput) paymentdomain.PaymentRequest {
	items := make([]paymentdomain.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, paymentdomain.LineItem{
			ID:        item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		})
	}

	address := paymentdomain.Address{
		Line1:      customer.Line1,
		Line2:      customer.Line2,
		City:       customer.City,
		State:      customer.State,
		PostalCode: customer.PostalCode,
		Country:    customer.Country,
	}
	if strings.TrimSpace(address.Line1) == "" {
		shipping := order.ShippingAddress
		address = paymentdomain.Address{
			Line1:      shipping.Line1,
			Line2:      shipping.Line2,
			City:       shipping.City,
			State:      shipping.State,
			PostalCode: shipping.PostalCode,
			Country:    shipping.Country,
		}
	}

	returnURL := strings.TrimSpace(input.ReturnURL)
	if returnURL == "" {
		returnURL = s.storefrontURL("/checkout/success", url.Values{"orderId": {order.ID}})
	}
	cancelURL := strings.TrimSpace(input.CancelURL)
	if cancelURL == "" {
		cancelURL = s.storefrontURL("/checkout/cancel", url.Values{"orderId": {order.ID}})
	}

	req := paymentdomain.PaymentRequest{
		OrderID:  order.ID,
		Amount:   order.Total,
		Currency: order.Currency,
		Customer: paymentdomain.CustomerContact{
			ID:        customer.ID,
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
			Email:     customer.Email,
			Phone:     customer.Phone,
			Address:   address,
		},
		Items:      items,
		Method:     input.Method,
		ReturnURL:  returnURL,
		CancelURL:  cancelURL,
		WebhookURL: s.cfg.WebhookURL(input.Provider),
	}
	if order.Payment.Provider == input.Provider {
		req.PreviousTransactionID = strings.TrimSpace(order.Payment.TransactionID)
	}
	return req
}

func (s *Service) storefrontURL(path string, query url.Values) string {
	base := strings.TrimRight(s.cfg.URLs.StorefrontURL, "/")
	if len(query) == 0 {
		return base + path
	}
	return base + path + "?" + query.Encode()
}
