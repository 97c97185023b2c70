package repository

import (
	"github.com/ManuelReschke/ExamFox/app/models"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// ListByAccount returns the account's payment attempts, newest first.
func (r *transactionRepository) ListByAccount(accountID uint, offset, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error
	return txs, err
}
