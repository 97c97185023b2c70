package repository

import (
	"github.com/ManuelReschke/ExamFox/app/models"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for account-related database operations
type AccountRepository interface {
	Create(account *models.Account) error
	GetByID(id uint) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	GetByAPIKeyHash(hash string) (*models.Account, error)
	List(offset, limit int) ([]models.Account, error)
	Count() (int64, error)
	ResetQuota(id uint) error
}

// ExamRepository defines read access to persisted exam artifacts. Artifacts
// are created only by the generation pipeline.
type ExamRepository interface {
	GetByUUID(accountID uint, uuid string) (*models.ExamArtifact, error)
	ListByAccount(accountID uint, offset, limit int) ([]models.ExamArtifact, error)
	CountByAccount(accountID uint) (int64, error)
}

// TransactionRepository defines read access to payment attempts.
type TransactionRepository interface {
	ListByAccount(accountID uint, offset, limit int) ([]models.Transaction, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Account     AccountRepository
	Exam        ExamRepository
	Transaction TransactionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Account:     NewAccountRepository(db),
		Exam:        NewExamRepository(db),
		Transaction: NewTransactionRepository(db),
	}
}
