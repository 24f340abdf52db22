// Package cod implements cash on delivery: no external provider, the order
// stays pending until the courier collects.
package cod

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

const (
	ProviderName       = "cod"
	transactionPrefix  = "cod_"
	nativeStatusAwait  = "awaiting_collection"
	nativeStatusPaid   = "collected"
	nativeStatusFailed = "refused"
)

var transactionIDPattern = regexp.MustCompile(`^cod_\d+$`)

var statusMap = map[string]paymentdomain.PaymentStatus{
	nativeStatusAwait:  paymentdomain.PaymentStatusPending,
	nativeStatusPaid:   paymentdomain.PaymentStatusCompleted,
	nativeStatusFailed: paymentdomain.PaymentStatusFailed,
}

type Factory struct {
	genID *snowflake.Node
}

func NewFactory(genID *snowflake.Node) *Factory {
	return &Factory{genID: genID}
}

func (f *Factory) Provider() string { return ProviderName }

func (f *Factory) NewAdapter(paymentdomain.AdapterConfig) (paymentdomain.Adapter, error) {
	if f.genID == nil {
		return nil, paymentdomain.ErrInvalidConfig
	}
	return &Adapter{genID: f.genID}, nil
}

type Adapter struct {
	genID *snowflake.Node
}

func (a *Adapter) Provider() string { return ProviderName }

func (a *Adapter) CreatePayment(_ context.Context, req paymentdomain.PaymentRequest) (*paymentdomain.PaymentCreationResult, error) {
	id := transactionPrefix + a.genID.Generate().String()
	return &paymentdomain.PaymentCreationResult{
		Success:         true,
		Provider:        ProviderName,
		TransactionID:   id,
		ReferenceNumber: req.OrderID,
		Status:          paymentdomain.PaymentStatusPending,
	}, nil
}

// VerifyPayment has no provider to ask; collection is confirmed out of band.
func (a *Adapter) VerifyPayment(_ context.Context, transactionID string) (*paymentdomain.PaymentCallback, error) {
	if !a.MatchesTransactionID(strings.TrimSpace(transactionID)) {
		return nil, paymentdomain.ErrInvalidTransaction
	}
	return &paymentdomain.PaymentCallback{
		Provider:       ProviderName,
		TransactionID:  strings.TrimSpace(transactionID),
		Status:         paymentdomain.PaymentStatusPending,
		ProviderStatus: nativeStatusAwait,
	}, nil
}

func (a *Adapter) ParseWebhook(context.Context, paymentdomain.WebhookPayload) (*paymentdomain.PaymentCallback, error) {
	return nil, paymentdomain.ErrWebhookUnsupported
}

func (a *Adapter) MapStatus(providerStatus string) paymentdomain.PaymentStatus {
	if status, ok := statusMap[strings.ToLower(strings.TrimSpace(providerStatus))]; ok {
		return status
	}
	return paymentdomain.PaymentStatusPending
}

func (a *Adapter) MatchesTransactionID(transactionID string) bool {
	return transactionIDPattern.MatchString(transactionID)
}
