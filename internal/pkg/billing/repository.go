package billing

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/ExamFox/app/models"
)

// Repository provides DB operations used by checkout and the synchronizer.
type Repository interface {
	// Transaction runs fn against a repository bound to one DB transaction.
	Transaction(ctx context.Context, fn func(r Repository) error) error

	GetAccount(id uint) (*models.Account, error)
	LockAccount(id uint) (*models.Account, error)
	// SetCustomerIfEmpty stores the processor customer id unless one is
	// already present. It reports whether this call stored it.
	SetCustomerIfEmpty(accountID uint, customerID string) (bool, error)
	ActivateSubscription(accountID uint, plan string, start, end time.Time) error

	CreateTransaction(t *models.Transaction) error
	LockTransactionByPaymentID(externalPaymentID string) (*models.Transaction, error)
	SaveTransactionState(t *models.Transaction) error

	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, error)
	MarkWebhookProcessed(provider, providerEventID, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(r Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) GetAccount(id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) LockAccount(id uint) (*models.Account, error) {
	var account models.Account
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) SetCustomerIfEmpty(accountID uint, customerID string) (bool, error) {
	res := r.db.Model(&models.Account{}).
		Where("id = ? AND external_customer_id = ?", accountID, "").
		Update("external_customer_id", customerID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) ActivateSubscription(accountID uint, plan string, start, end time.Time) error {
	updates := map[string]interface{}{
		"subscription_status": models.SubscriptionStatusActive,
		"subscription_plan":   plan,
		"subscription_start":  start,
		"subscription_end":    end,
		"plan_tier":           plan,
	}
	res := r.db.Model(&models.Account{}).Where("id = ?", accountID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) CreateTransaction(t *models.Transaction) error {
	return r.db.Create(t).Error
}

func (r *gormRepository) LockTransactionByPaymentID(externalPaymentID string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_payment_id = ?", externalPaymentID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) SaveTransactionState(t *models.Transaction) error {
	updates := map[string]interface{}{
		"status":           t.Status,
		"applied_event_id": t.AppliedEventID,
		"activated_at":     t.ActivatedAt,
	}
	return r.db.Model(&models.Transaction{}).Where("id = ?", t.ID).Updates(updates).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) MarkWebhookProcessed(provider, providerEventID, processingError string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		Updates(updates).Error
}
