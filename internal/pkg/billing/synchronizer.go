package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ExamFox/app/models"
)

// SubscriptionPeriod is the length of the window one confirmed payment buys.
const SubscriptionPeriod = 30 * 24 * time.Hour

const overdueNotifyTimeout = 30 * time.Second

// OverdueNotifier is told about overdue payments once they are recorded.
type OverdueNotifier interface {
	NotifyOverdue(ctx context.Context, notice OverdueNotice) error
}

// Synchronizer applies verified payment notifications to transactions and
// subscription windows.
type Synchronizer struct {
	repo     Repository
	notifier OverdueNotifier
	now      func() time.Time
}

// NewSynchronizer creates a synchronizer. notifier may be nil.
func NewSynchronizer(repo Repository, notifier OverdueNotifier) *Synchronizer {
	return &Synchronizer{
		repo:     repo,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewSynchronizerFromDB creates a synchronizer from a GORM DB handle.
func NewSynchronizerFromDB(db *gorm.DB, notifier OverdueNotifier) *Synchronizer {
	return NewSynchronizer(NewRepository(db), notifier)
}

// HandleWebhook verifies, parses and applies a raw notification. Nothing is
// read or written before verification succeeds.
func (s *Synchronizer) HandleWebhook(ctx context.Context, verifier Verifier, payload []byte, signatureHeader string) (*ApplyResult, error) {
	if verifier == nil || !verifier.Verify(payload, signatureHeader) {
		return nil, ErrWebhookForbidden
	}
	ev, err := ParsePaymentEvent(payload)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, *ev)
}

// Apply records the delivery and mutates local state for it in one DB
// transaction. Redelivered events are reported as duplicates and change nothing.
func (s *Synchronizer) Apply(ctx context.Context, ev PaymentEvent) (*ApplyResult, error) {
	class, err := Classify(ev)
	if err != nil {
		return nil, err
	}

	now := s.now().Truncate(time.Second)
	result := &ApplyResult{
		EventKey: ev.Key(),
		Class:    class,
	}
	var notice *OverdueNotice

	err = s.repo.Transaction(ctx, func(r Repository) error {
		created, err := r.CreateWebhookEventIfNotExists(&models.BillingWebhookEvent{
			Provider:          models.BillingProviderAsaas,
			ProviderEventID:   result.EventKey,
			EventType:         ev.Event,
			ExternalPaymentID: ev.Payment.ID,
			PayloadJSON:       string(ev.Raw),
		})
		if err != nil {
			return err
		}
		if !created {
			result.Duplicate = true
			return nil
		}

		txn, err := r.LockTransactionByPaymentID(ev.Payment.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		result.AccountID = txn.AccountID
		txn.Status = strings.ToLower(ev.Payment.Status)

		switch class {
		case EventConfirmed:
			if txn.IsApplied() {
				log.Infof("[Billing] payment %s already activated by %s, skipping", txn.ExternalPaymentID, txn.AppliedEventID)
				break
			}
			account, err := r.LockAccount(txn.AccountID)
			if err != nil {
				return err
			}
			start, end := renewalWindow(account, txn.Plan, now)
			if err := r.ActivateSubscription(account.ID, txn.Plan, start, end); err != nil {
				return err
			}
			txn.AppliedEventID = result.EventKey
			txn.ActivatedAt = &now
			result.Activated = true
			result.SubscriptionEnd = &end
		case EventOverdue:
			account, err := r.GetAccount(txn.AccountID)
			if err != nil {
				return err
			}
			notice = &OverdueNotice{
				AccountID:   account.ID,
				Name:        account.Name,
				Email:       account.Email,
				PaymentID:   txn.ExternalPaymentID,
				Plan:        txn.Plan,
				AmountCents: txn.AmountCents,
				DueDate:     ev.Payment.DueDate,
			}
		}

		if err := r.SaveTransactionState(txn); err != nil {
			return err
		}
		result.TransactionStatus = txn.Status
		return r.MarkWebhookProcessed(models.BillingProviderAsaas, result.EventKey, "")
	})
	if err != nil {
		return nil, err
	}

	if result.Duplicate {
		log.Infof("[Billing] duplicate delivery %s ignored", result.EventKey)
		return result, nil
	}
	if result.Activated {
		log.Infof("[Billing] account %d subscription active until %s", result.AccountID, result.SubscriptionEnd.Format(time.RFC3339))
	}
	if notice != nil {
		s.notifyOverdue(ctx, *notice)
	}
	return result, nil
}

func (s *Synchronizer) notifyOverdue(ctx context.Context, notice OverdueNotice) {
	log.Warnf("[Billing] payment %s overdue for account %d", notice.PaymentID, notice.AccountID)
	if s.notifier == nil {
		return
	}
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), overdueNotifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyOverdue(nctx, notice); err != nil {
			log.Errorf("[Billing] overdue notification for account %d failed: %v", notice.AccountID, err)
		}
	}()
}

// renewalWindow opens a fresh window from now, or extends the current one
// when the same plan is still running.
func renewalWindow(account *models.Account, plan string, now time.Time) (time.Time, time.Time) {
	start := now
	end := now.Add(SubscriptionPeriod)
	if account.SubscriptionStatus == models.SubscriptionStatusActive &&
		normalizePlan(account.SubscriptionPlan) == normalizePlan(plan) &&
		account.SubscriptionEnd != nil && account.SubscriptionEnd.After(now) {
		end = account.SubscriptionEnd.UTC().Add(SubscriptionPeriod)
	}
	return start, end
}
