// Package notify tells account owners about billing problems.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/ManuelReschke/ExamFox/internal/pkg/billing"
)

// OverdueMailer mails the account owner when a payment becomes overdue.
type OverdueMailer struct {
	send SendFunc
}

// NewOverdueMailer returns a mailer using send, or SMTP when send is nil.
func NewOverdueMailer(send SendFunc) *OverdueMailer {
	if send == nil {
		send = SendMail
	}
	return &OverdueMailer{send: send}
}

func (m *OverdueMailer) NotifyOverdue(ctx context.Context, notice billing.OverdueNotice) error {
	if strings.TrimSpace(notice.Email) == "" {
		return errors.New("overdue notice without recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body := renderOverdue(notice)
	return m.send(notice.Email, subject, body)
}

func renderOverdue(n billing.OverdueNotice) (string, string) {
	planName := n.Plan
	if offer, err := billing.LookupPlan(n.Plan); err == nil {
		planName = offer.Name
	}
	subject := fmt.Sprintf("Pagamento pendente - %s", planName)

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Olá %s,</p>", html.EscapeString(n.Name))
	fmt.Fprintf(&b, "<p>O pagamento de R$ %d,%02d referente ao %s está vencido",
		n.AmountCents/100, n.AmountCents%100, html.EscapeString(planName))
	if n.DueDate != "" {
		fmt.Fprintf(&b, " desde %s", html.EscapeString(n.DueDate))
	}
	b.WriteString(".</p>")
	fmt.Fprintf(&b, "<p>Referência do pagamento: %s</p>", html.EscapeString(n.PaymentID))
	b.WriteString("<p>Sua assinatura será ativada assim que o pagamento for confirmado.</p>")
	return subject, b.String()
}
