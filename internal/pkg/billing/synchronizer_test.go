package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ExamFox/app/models"
	"github.com/ManuelReschke/ExamFox/internal/pkg/testutil"
)

var syncNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	notices chan OverdueNotice
}

func (n *recordingNotifier) NotifyOverdue(ctx context.Context, notice OverdueNotice) error {
	n.notices <- notice
	return nil
}

func newTestSynchronizer(t *testing.T, notifier OverdueNotifier) (*Synchronizer, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	s := NewSynchronizer(NewRepository(db), notifier)
	s.now = func() time.Time { return syncNow }
	return s, db
}

func createPendingTransaction(t *testing.T, db *gorm.DB, accountID uint, paymentID, plan string) {
	t.Helper()
	offer, err := LookupPlan(plan)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Transaction{
		AccountID:         accountID,
		ExternalPaymentID: paymentID,
		ExternalReference: FormatExternalReference(accountID, plan, syncNow),
		Plan:              plan,
		AmountCents:       offer.AmountCents,
		Status:            models.TransactionStatusPending,
	}).Error)
}

func paymentEvent(t *testing.T, id, event, paymentID, status string) PaymentEvent {
	t.Helper()
	idField := ""
	if id != "" {
		idField = fmt.Sprintf(`"id":%q,`, id)
	}
	raw := fmt.Sprintf(`{%s"event":%q,"payment":{"id":%q,"status":%q,"customer":"cus_1","value":29.9,"dueDate":"2026-05-02"}}`,
		idField, event, paymentID, status)
	ev, err := ParsePaymentEvent([]byte(raw))
	require.NoError(t, err)
	return *ev
}

func loadTransaction(t *testing.T, db *gorm.DB, paymentID string) models.Transaction {
	t.Helper()
	var txn models.Transaction
	require.NoError(t, db.Where("external_payment_id = ?", paymentID).First(&txn).Error)
	return txn
}

func TestApply_ConfirmedActivatesSubscription(t *testing.T) {
	s, db := newTestSynchronizer(t, nil)
	account := testutil.CreateAccount(t, db, testutil.WithQuotaUsed(10))
	createPendingTransaction(t, db, account.ID, "pay_1", models.PlanPro)

	res, err := s.Apply(context.Background(), paymentEvent(t, "evt_1", "PAYMENT_CONFIRMED", "pay_1", "CONFIRMED"))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.True(t, res.Activated)
	assert.Equal(t, EventConfirmed, res.Class)
	assert.Equal(t, account.ID, res.AccountID)

	got := testutil.Reload(t, db, account.ID)
	assert.Equal(t, models.SubscriptionStatusActive, got.SubscriptionStatus)
	assert.Equal(t, models.PlanPro, got.SubscriptionPlan)
	assert.Equal(t, models.PlanPro, got.PlanTier)
	require.NotNil(t, got.SubscriptionStart)
	require.NotNil(t, got.SubscriptionEnd)
	assert.True(t, syncNow.Equal(*got.SubscriptionStart))
	assert.True(t, syncNow.Add(SubscriptionPeriod).Equal(*got.SubscriptionEnd))
	// quota is not reset by an upgrade
	assert.Equal(t, 10, got.QuotaUsed)

	txn := loadTransaction(t, db, "pay_1")
	assert.Equal(t, "confirmed", txn.Status)
	assert.Equal(t, "evt_1", txn.AppliedEventID)
	require.NotNil(t, txn.ActivatedAt)

	var delivery models.BillingWebhookEvent
	require.NoError(t, db.Where("provider_event_id = ?", "evt_1").First(&delivery).Error)
	assert.NotNil(t, delivery.ProcessedAt)
	assert.Equal(t, "pay_1", delivery.ExternalPaymentID)
}

func TestApply_ReplayLeavesWindowIdentical(t *testing.T) {
	s, db := newTestSynchronizer(t, nil)
	account := testutil.CreateAccount(t, db)
	createPendingTransaction(t, db, account.ID, "pay_1", models.PlanPro)
	ev := paymentEvent(t, "", "PAYMENT_RECEIVED", "pay_1", "RECEIVED")

	_, err := s.Apply(context.Background(), ev)
	require.NoError(t, err)
	first := testutil.Reload(t, db, account.ID)

	// a later redelivery must not move the window
	s.now = func() time.Time { return syncNow.Add(6 * time.Hour) }
	res, err := s.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.False(t, res.Activated)

	second := testutil.Reload(t, db, account.ID)
	assert.True(t, first.SubscriptionEnd.Equal(*second.SubscriptionEnd))
	assert.True(t, first.SubscriptionStart.Equal(*second.SubscriptionStart))

	var deliveries int64
	require.NoError(t, db.Model(&models.BillingWebhookEvent{}).Count(&deliveries).Error)
	assert.Equal(t, int64(1), deliveries)
}

func TestApply_SecondConfirmationOfSamePaymentIsNoop(t *testing.T) {
	s, db := newTestSynchronizer(t, nil)
	account := testutil.CreateAccount(t, db)
	createPendingTransaction(t, db, account.ID, "pay_1", models.PlanPro)

	_, err := s.Apply(context.Background(), paymentEvent(t, "", "PAYMENT_CONFIRMED", "pay_1", "CONFIRMED"))
	require.NoError(t, err)
	first := testutil.Reload(t, db, account.ID)

	s.now = func() time.Time { return syncNow.Add(24 * time.Hour) }
	res, err := s.Apply(context.Background(), paymentEvent(t, "", "PAYMENT_RECEIVED", "pay_1", "RECEIVED"))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.False(t, res.Activated)
	assert.Equal(t, "received", res.TransactionStatus)

	second := testutil.Reload(t, db, account.ID)
	assert.True(t, first.SubscriptionEnd.Equal(*second.SubscriptionEnd))
	assert.Equal(t, "PAYMENT_CONFIRMED:pay_1", loadTransaction(t, db, "pay_1").AppliedEventID)
}

func TestApply_RenewalStacksOntoOpenWindow(t *testing.T) {
	s, db := newTestSynchronizer(t, nil)
	currentEnd := syncNow.Add(10 * 24 * time.Hour)
	account := testutil.CreateAccount(t, db, testutil.WithSubscription(models.PlanPro, currentEnd))
	createPendingTransaction(t, db, account.ID, "pay_2", models.PlanPro)

	res, err := s.Apply(context.Background(), paymentEvent(t, "evt_2", "PAYMENT_CONFIRMED", "pay_2", "CONFIRMED"))
	require.NoError(t, err)
	require.True(t, res.Activated)

	got := testutil.Reload(t, db, account.ID)
	assert.True(t, currentEnd.Add(SubscriptionPeriod).Equal(*got.SubscriptionEnd))
}

func TestApply_PlanChangeOrLapsedWindowStartsFresh(t *testing.T) {
	tests := []struct {
		name        string
		currentPlan string
		currentEnd  time.Time
		paidPlan    string
	}{
		{name: "lapsed same plan", currentPlan: models.PlanPro, currentEnd: syncNow.Add(-time.Hour), paidPlan: models.PlanPro},
		{name: "upgrade from pro", currentPlan: models.PlanPro, currentEnd: syncNow.Add(5 * 24 * time.Hour), paidPlan: models.PlanInstitutional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, db := newTestSynchronizer(t, nil)
			account := testutil.CreateAccount(t, db, testutil.WithSubscription(tt.currentPlan, tt.currentEnd))
			createPendingTransaction(t, db, account.ID, "pay_9", tt.paidPlan)

			_, err := s.Apply(context.Background(), paymentEvent(t, "", "PAYMENT_CONFIRMED", "pay_9", "CONFIRMED"))
			require.NoError(t, err)

			got := testutil.Reload(t, db, account.ID)
			assert.Equal(t, tt.paidPlan, got.SubscriptionPlan)
			assert.True(t, syncNow.Add(SubscriptionPeriod).Equal(*got.SubscriptionEnd))
		})
	}
}

func TestApply_UnknownPaymentChangesNothing(t *testing.T) {
	s, db := newTestSynchronizer(t, nil)
	testutil.CreateAccount(t, db)

	_, err := s.Apply(context.Background(), paymentEvent(t, "evt_x", "PAYMENT_CONFIRMED", "pay_missing", "CONFIRMED"))
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	var deliveries int64
	require.NoError(t, db.Model(&models.BillingWebhookEvent{}).Count(&deliveries).Error)
	assert.Zero(t, deliveries)
}

func TestApply_StatusOnlyUpdate(t *testing.T) {
	s, db := newTestSynchronizer(t, nil)
	account := testutil.CreateAccount(t, db)
	createPendingTransaction(t, db, account.ID, "pay_1", models.PlanPro)

	res, err := s.Apply(context.Background(), paymentEvent(t, "", "PAYMENT_REFUNDED", "pay_1", "REFUNDED"))
	require.NoError(t, err)
	assert.Equal(t, EventStatus, res.Class)

	assert.Equal(t, "refunded", loadTransaction(t, db, "pay_1").Status)
	assert.Equal(t, models.SubscriptionStatusNone, testutil.Reload(t, db, account.ID).SubscriptionStatus)
}

func TestApply_OverdueNotifies(t *testing.T) {
	notifier := &recordingNotifier{notices: make(chan OverdueNotice, 1)}
	s, db := newTestSynchronizer(t, notifier)
	account := testutil.CreateAccount(t, db)
	createPendingTransaction(t, db, account.ID, "pay_1", models.PlanInstitutional)

	res, err := s.Apply(context.Background(), paymentEvent(t, "", "PAYMENT_OVERDUE", "pay_1", "OVERDUE"))
	require.NoError(t, err)
	assert.Equal(t, EventOverdue, res.Class)
	assert.Equal(t, "overdue", loadTransaction(t, db, "pay_1").Status)
	assert.Equal(t, models.SubscriptionStatusNone, testutil.Reload(t, db, account.ID).SubscriptionStatus)

	select {
	case notice := <-notifier.notices:
		assert.Equal(t, account.Email, notice.Email)
		assert.Equal(t, "pay_1", notice.PaymentID)
		assert.Equal(t, int64(9990), notice.AmountCents)
		assert.Equal(t, "2026-05-02", notice.DueDate)
	case <-time.After(2 * time.Second):
		t.Fatal("overdue notifier was not called")
	}
}

func TestHandleWebhook_UnverifiedPersistsNothing(t *testing.T) {
	s, db := newTestSynchronizer(t, nil)
	account := testutil.CreateAccount(t, db)
	createPendingTransaction(t, db, account.ID, "pay_1", models.PlanPro)
	body := []byte(`{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_1","status":"CONFIRMED"}}`)

	_, err := s.HandleWebhook(context.Background(), TokenVerifier{Token: "expected"}, body, "forged")
	assert.ErrorIs(t, err, ErrWebhookForbidden)
	assert.True(t, IsAuthError(err))

	_, err = s.HandleWebhook(context.Background(), nil, body, "expected")
	assert.ErrorIs(t, err, ErrWebhookForbidden)

	assert.Equal(t, models.TransactionStatusPending, loadTransaction(t, db, "pay_1").Status)
	assert.Equal(t, models.SubscriptionStatusNone, testutil.Reload(t, db, account.ID).SubscriptionStatus)

	res, err := s.HandleWebhook(context.Background(), HMACVerifier{Secret: "s"}, body, SignPayload(body, "s"))
	require.NoError(t, err)
	assert.True(t, res.Activated)
}

func TestHandleWebhook_InvalidPayload(t *testing.T) {
	s, _ := newTestSynchronizer(t, nil)
	v := TokenVerifier{Token: "t"}

	_, err := s.HandleWebhook(context.Background(), v, []byte(`{"event":"PAYMENT_CONFIRMED"}`), "t")
	assert.True(t, IsValidationError(err))

	_, err = s.HandleWebhook(context.Background(), v, []byte(`{"event":"INVOICE_CREATED","payment":{"id":"p","status":"PENDING"}}`), "t")
	assert.True(t, IsValidationError(err))
}
