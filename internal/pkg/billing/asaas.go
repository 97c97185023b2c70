package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/ExamFox/internal/pkg/env"
)

const (
	defaultAsaasBaseURL = "https://www.asaas.com/api/v3"
	defaultAsaasTimeout = 15 * time.Second

	BillingTypePix = "PIX"
)

// Gateway is the subset of the payment processor API used by checkout.
type Gateway interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error)
	CreatePayment(ctx context.Context, in PaymentInput) (*Payment, error)
	GetPixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error)
}

type AsaasClient struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
}

func NewAsaasClientFromEnv() *AsaasClient {
	return &AsaasClient{
		APIKey:  strings.TrimSpace(env.GetEnv("ASAAS_API_KEY", "")),
		BaseURL: strings.TrimSpace(env.GetEnv("ASAAS_BASE_URL", defaultAsaasBaseURL)),
		HTTPClient: &http.Client{
			Timeout: env.GetEnvDuration("ASAAS_TIMEOUT", defaultAsaasTimeout),
		},
	}
}

func (c *AsaasClient) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, &GatewayError{Op: "create_customer", Err: errors.New("name and email are required")}
	}
	var out Customer
	if err := c.do(ctx, "create_customer", http.MethodPost, "/customers", in, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, &GatewayError{Op: "create_customer", Err: errors.New("response without customer id")}
	}
	return &out, nil
}

func (c *AsaasClient) CreatePayment(ctx context.Context, in PaymentInput) (*Payment, error) {
	if strings.TrimSpace(in.CustomerID) == "" {
		return nil, &GatewayError{Op: "create_payment", Err: errors.New("customer id is required")}
	}
	if in.BillingType == "" {
		in.BillingType = BillingTypePix
	}
	var out Payment
	if err := c.do(ctx, "create_payment", http.MethodPost, "/payments", in, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, &GatewayError{Op: "create_payment", Err: errors.New("response without payment id")}
	}
	return &out, nil
}

func (c *AsaasClient) GetPixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error) {
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, &GatewayError{Op: "pix_qr_code", Err: errors.New("payment id is required")}
	}
	var out PixQRCode
	if err := c.do(ctx, "pix_qr_code", http.MethodGet, "/payments/"+url.PathEscape(id)+"/pixQrCode", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AsaasClient) do(ctx context.Context, op, method, path string, in, out any) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &GatewayError{Op: op, Err: errors.New("ASAAS_API_KEY is not configured")}
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &GatewayError{Op: op, Err: err}
		}
		body = bytes.NewReader(payload)
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("access_token", c.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &GatewayError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *AsaasClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultAsaasTimeout}
}
