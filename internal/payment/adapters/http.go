package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/smallbiznis/paygate/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

const maxResponseBytes = 1 << 20

// NewHTTPClient returns the traced client shared by provider adapters.
// Deadlines come from the caller's context.
func NewHTTPClient() *http.Client {
	return tracing.WrapHTTPClient(&http.Client{})
}

// Response is a provider reply read fully into memory.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into out.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("%w: %v", paymentdomain.ErrInvalidPayload, err)
	}
	return nil
}

// Do sends req and reads the reply. Network faults and 5xx replies become a
// *ProviderError. 4xx replies are returned for the adapter to interpret.
func Do(ctx context.Context, client *http.Client, provider, op string, req *http.Request) (*Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, Classify(ctx, provider, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, Classify(ctx, provider, op, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &paymentdomain.ProviderError{
			Provider: provider,
			Op:       op,
			Err:      fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// NewJSONRequest builds a request with a JSON body.
func NewJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Classify wraps a transport error, flagging deadline expiry as a timeout.
func Classify(ctx context.Context, provider, op string, err error) error {
	if err == nil {
		return nil
	}
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	return &paymentdomain.ProviderError{Provider: provider, Op: op, Timeout: timeout, Err: err}
}
