package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ExamFox/internal/pkg/billing"
)

func TestOverdueMailer_SendsToAccountOwner(t *testing.T) {
	var to, subject, body string
	m := NewOverdueMailer(func(t, s, b string) error {
		to, subject, body = t, s, b
		return nil
	})

	err := m.NotifyOverdue(context.Background(), billing.OverdueNotice{
		AccountID:   3,
		Name:        "Ana <Prof>",
		Email:       "ana@example.com",
		PaymentID:   "pay_1",
		Plan:        "pro",
		AmountCents: 2990,
		DueDate:     "2026-05-02",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", to)
	assert.Equal(t, "Pagamento pendente - Plano Pro", subject)
	assert.Contains(t, body, "R$ 29,90")
	assert.Contains(t, body, "2026-05-02")
	assert.Contains(t, body, "pay_1")
	assert.Contains(t, body, "Ana &lt;Prof&gt;")
}

func TestOverdueMailer_RequiresRecipient(t *testing.T) {
	called := false
	m := NewOverdueMailer(func(string, string, string) error {
		called = true
		return nil
	})

	assert.Error(t, m.NotifyOverdue(context.Background(), billing.OverdueNotice{PaymentID: "pay_1"}))
	assert.False(t, called)
}
