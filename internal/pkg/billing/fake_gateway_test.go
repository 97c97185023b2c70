package billing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type fakeGateway struct {
	customerCalls atomic.Int32
	paymentCalls  atomic.Int32
	customerDelay time.Duration

	mu          sync.Mutex
	payments    []PaymentInput
	customerErr error
	paymentErr  error
	qrErr       error
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	n := g.customerCalls.Add(1)
	if g.customerDelay > 0 {
		time.Sleep(g.customerDelay)
	}
	if g.customerErr != nil {
		return nil, g.customerErr
	}
	return &Customer{ID: fmt.Sprintf("cus_%d", n), Name: in.Name, Email: in.Email}, nil
}

func (g *fakeGateway) CreatePayment(ctx context.Context, in PaymentInput) (*Payment, error) {
	n := g.paymentCalls.Add(1)
	if g.paymentErr != nil {
		return nil, g.paymentErr
	}
	g.mu.Lock()
	g.payments = append(g.payments, in)
	g.mu.Unlock()
	return &Payment{
		ID:         fmt.Sprintf("pay_%d", n),
		Status:     "PENDING",
		InvoiceURL: fmt.Sprintf("https://pay.example/i/%d", n),
		Value:      in.Value,
	}, nil
}

func (g *fakeGateway) GetPixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error) {
	if g.qrErr != nil {
		return nil, g.qrErr
	}
	return &PixQRCode{Payload: "pix-" + paymentID}, nil
}
