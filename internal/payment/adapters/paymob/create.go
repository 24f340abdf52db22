package paymob

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/smallbiznis/paygate/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

// CreatePayment registers the order with Paymob, issues a payment key and
// returns the hosted checkout URL for the requested method.
func (a *Adapter) CreatePayment(ctx context.Context, req paymentdomain.PaymentRequest) (*paymentdomain.PaymentCreationResult, error) {
	method := strings.ToLower(strings.TrimSpace(req.Method))
	integrationID, ok := a.integrations[method]
	if !ok {
		return a.declined("payment method " + req.Method + " is not enabled"), nil
	}

	token, err := a.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	amountCents := toCents(req.Amount)
	items := make([]orderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, orderItem{
			Name:        item.Name,
			AmountCents: toCents(item.UnitPrice),
			Description: item.Name,
			Quantity:    item.Quantity,
		})
	}

	order, declined, err := a.registerOrder(ctx, token, req, amountCents, items)
	if err != nil || declined != nil {
		return declined, err
	}

	c := req.Customer
	var key paymentKeyResponse
	ok, msg, err := a.post(ctx, "payment_key", "/api/acceptance/payment_keys", paymentKeyRequest{
		AuthToken:   token,
		AmountCents: amountCents,
		Expiration:  paymentKeyExpirySeconds,
		OrderID:     order.ID,
		BillingData: billingData{
			FirstName:   orNA(c.FirstName),
			LastName:    orNA(c.LastName),
			Email:       orNA(c.Email),
			PhoneNumber: orNA(c.Phone),
			Street:      orNA(c.Address.Line1),
			Building:    "NA",
			Floor:       "NA",
			Apartment:   orNA(c.Address.Line2),
			City:        orNA(c.Address.City),
			State:       orNA(c.Address.State),
			Country:     orNA(c.Address.Country),
			PostalCode:  orNA(c.Address.PostalCode),
		},
		Currency:          strings.ToUpper(req.Currency),
		IntegrationID:     integrationID,
		LockOrderWhenPaid: true,
	}, &key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return a.declined(msg), nil
	}

	redirectURL := a.baseURL + "/api/acceptance/iframes/" + url.PathEscape(a.iframeID) + "?payment_token=" + url.QueryEscape(key.Token)
	if method == MethodWallet {
		var pay walletPayResponse
		ok, msg, err = a.post(ctx, "wallet_pay", "/api/acceptance/payments/pay", walletPayRequest{
			Source:       walletSource{Identifier: c.Phone, Subtype: "WALLET"},
			PaymentToken: key.Token,
		}, &pay)
		if err != nil {
			return nil, err
		}
		if !ok {
			return a.declined(msg), nil
		}
		redirectURL = pay.RedirectURL
	}

	return &paymentdomain.PaymentCreationResult{
		Success:         true,
		Provider:        ProviderName,
		TransactionID:   order.ID.String(),
		ReferenceNumber: req.OrderID,
		RedirectURL:     redirectURL,
		Status:          paymentdomain.PaymentStatusPending,
	}, nil
}

// registerOrder returns the Paymob order for req. Paymob refuses a second
// order with the same merchant_order_id, so a retry reuses the order the
// previous attempt registered.
func (a *Adapter) registerOrder(ctx context.Context, token string, req paymentdomain.PaymentRequest, amountCents int64, items []orderItem) (orderResponse, *paymentdomain.PaymentCreationResult, error) {
	if prev := strings.TrimSpace(req.PreviousTransactionID); a.MatchesTransactionID(prev) {
		return orderResponse{ID: json.Number(prev)}, nil, nil
	}

	var order orderResponse
	ok, msg, err := a.post(ctx, "register_order", "/api/ecommerce/orders", orderRequest{
		AuthToken:       token,
		AmountCents:     amountCents,
		Currency:        strings.ToUpper(req.Currency),
		MerchantOrderID: req.OrderID,
		Items:           items,
	}, &order)
	if err != nil {
		return order, nil, err
	}
	if !ok {
		return order, a.declined(msg), nil
	}
	if order.ID.String() == "" {
		return order, nil, paymentdomain.ErrInvalidPayload
	}
	return order, nil, nil
}

func (a *Adapter) authenticate(ctx context.Context) (string, error) {
	var auth authResponse
	ok, msg, err := a.post(ctx, "auth", "/api/auth/tokens", map[string]string{"api_key": a.apiKey}, &auth)
	if err != nil {
		return "", err
	}
	if !ok || auth.Token == "" {
		return "", &paymentdomain.ProviderError{Provider: ProviderName, Op: "auth", Err: &authError{msg: msg}}
	}
	return auth.Token, nil
}

// post returns ok=false with the provider's message for 4xx replies.
func (a *Adapter) post(ctx context.Context, op, path string, payload, out any) (bool, string, error) {
	req, err := adapters.NewJSONRequest(ctx, http.MethodPost, a.baseURL+path, payload)
	if err != nil {
		return false, "", err
	}
	resp, err := adapters.Do(ctx, a.client, ProviderName, op, req)
	if err != nil {
		return false, "", err
	}
	if !resp.OK() {
		return false, errorFromBody(resp).Error(), nil
	}
	if err := resp.Decode(out); err != nil {
		return false, "", err
	}
	return true, "", nil
}

func (a *Adapter) declined(msg string) *paymentdomain.PaymentCreationResult {
	return &paymentdomain.PaymentCreationResult{
		Success:  false,
		Provider: ProviderName,
		Status:   paymentdomain.PaymentStatusFailed,
		Error:    msg,
	}
}

type authError struct {
	msg string
}

func (e *authError) Error() string {
	if e.msg == "" {
		return "authentication rejected"
	}
	return "authentication rejected: " + e.msg
}
