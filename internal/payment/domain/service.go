package domain

import "context"

type Service interface {
	ListAvailableMethods(ctx context.Context) ([]AvailableMethod, error)
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*PaymentCreationResult, error)
	VerifyPayment(ctx context.Context, transactionID string, provider string) (*VerifyResult, error)
	IngestWebhook(ctx context.Context, provider string, payload WebhookPayload) (*WebhookAck, error)
	ResolveRedirect(ctx context.Context, provider string, payload WebhookPayload) (*RedirectResult, error)
}
