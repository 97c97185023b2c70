package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ExamFox/app/models"
)

// CheckoutService starts paid-plan purchases at the payment processor.
type CheckoutService struct {
	repo      Repository
	gateway   Gateway
	customers singleflight.Group
	now       func() time.Time
}

// NewCheckoutService creates a checkout service from an injected repository and gateway.
func NewCheckoutService(repo Repository, gateway Gateway) *CheckoutService {
	return &CheckoutService{
		repo:    repo,
		gateway: gateway,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NewCheckoutServiceFromDB wires the checkout service with the Asaas client from env.
func NewCheckoutServiceFromDB(db *gorm.DB) *CheckoutService {
	return NewCheckoutService(NewRepository(db), NewAsaasClientFromEnv())
}

// StartCheckout creates a PIX charge for plan and records it as a pending
// transaction. A processor customer is provisioned on first use.
func (s *CheckoutService) StartCheckout(ctx context.Context, accountID uint, plan string) (*CheckoutResult, error) {
	offer, err := LookupPlan(plan)
	if err != nil {
		return nil, err
	}
	if accountID == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	account, err := s.repo.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, account)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reference := FormatExternalReference(account.ID, offer.Code, now)
	payment, err := s.gateway.CreatePayment(ctx, PaymentInput{
		CustomerID:        customerID,
		BillingType:       BillingTypePix,
		Value:             offer.Amount(),
		DueDate:           now.AddDate(0, 0, 1).Format("2006-01-02"),
		Description:       fmt.Sprintf("Assinatura %s - ExamFox", offer.Name),
		ExternalReference: reference,
	})
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		AccountID:         account.ID,
		ExternalPaymentID: payment.ID,
		ExternalReference: reference,
		Plan:              offer.Code,
		AmountCents:       offer.AmountCents,
		Status:            models.TransactionStatusPending,
	}
	if err := s.repo.CreateTransaction(txn); err != nil {
		log.Errorf("[Billing] payment %s created but transaction insert failed for account %d: %v", payment.ID, account.ID, err)
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	result := &CheckoutResult{
		PaymentID:  payment.ID,
		PaymentURL: payment.InvoiceURL,
		Status:     payment.Status,
		Plan:       offer.Code,
		Amount:     offer.Amount(),
	}
	if qr, err := s.gateway.GetPixQRCode(ctx, payment.ID); err != nil {
		log.Warnf("[Billing] pix qr code unavailable for payment %s: %v", payment.ID, err)
	} else {
		result.QRCode = qr.Payload
	}
	return result, nil
}

// ensureCustomer returns the stored processor customer id, creating it once.
// Concurrent checkouts of one account share a single remote call and the
// conditional update keeps the first stored id.
func (s *CheckoutService) ensureCustomer(ctx context.Context, account *models.Account) (string, error) {
	if account.HasCustomer() {
		return account.ExternalCustomerID, nil
	}

	key := strconv.FormatUint(uint64(account.ID), 10)
	v, err, _ := s.customers.Do(key, func() (interface{}, error) {
		current, err := s.repo.GetAccount(account.ID)
		if err != nil {
			return "", err
		}
		if current.HasCustomer() {
			return current.ExternalCustomerID, nil
		}

		customer, err := s.gateway.CreateCustomer(ctx, CustomerInput{
			Name:              current.Name,
			Email:             current.Email,
			ExternalReference: key,
		})
		if err != nil {
			return "", err
		}

		stored, err := s.repo.SetCustomerIfEmpty(current.ID, customer.ID)
		if err != nil {
			return "", fmt.Errorf("store customer id: %w", err)
		}
		if stored {
			return customer.ID, nil
		}

		// Another process stored a customer first; use that one.
		log.Warnf("[Billing] account %d already had a customer, discarding %s", current.ID, customer.ID)
		winner, err := s.repo.GetAccount(current.ID)
		if err != nil {
			return "", err
		}
		if !winner.HasCustomer() {
			return "", errors.New("customer id missing after conditional update")
		}
		return winner.ExternalCustomerID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// FormatExternalReference builds the reference attached to a payment:
// "<accountID>-<plan>-<unixMillis>".
func FormatExternalReference(accountID uint, plan string, at time.Time) string {
	return fmt.Sprintf("%d-%s-%d", accountID, plan, at.UnixMilli())
}

// ParseExternalReference is the inverse of FormatExternalReference.
func ParseExternalReference(ref string) (uint, string, time.Time, error) {
	parts := strings.Split(strings.TrimSpace(ref), "-")
	if len(parts) != 3 {
		return 0, "", time.Time{}, fmt.Errorf("malformed external reference %q", ref)
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id == 0 {
		return 0, "", time.Time{}, fmt.Errorf("malformed account id in external reference %q", ref)
	}
	if _, err := LookupPlan(parts[1]); err != nil {
		return 0, "", time.Time{}, fmt.Errorf("unknown plan in external reference %q", ref)
	}
	millis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, "", time.Time{}, fmt.Errorf("malformed timestamp in external reference %q", ref)
	}
	return uint(id), parts[1], time.UnixMilli(millis).UTC(), nil
}
