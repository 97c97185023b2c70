package repository

import (
	"github.com/ManuelReschke/ExamFox/app/models"
	"gorm.io/gorm"
)

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository creates a new exam repository instance
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

// GetByUUID returns an artifact owned by the given account.
func (r *examRepository) GetByUUID(accountID uint, uuid string) (*models.ExamArtifact, error) {
	var exam models.ExamArtifact
	err := r.db.Where("uuid = ? AND account_id = ?", uuid, accountID).First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// ListByAccount returns the account's artifacts, newest first.
func (r *examRepository) ListByAccount(accountID uint, offset, limit int) ([]models.ExamArtifact, error) {
	var exams []models.ExamArtifact
	err := r.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&exams).Error
	return exams, err
}

// CountByAccount returns the number of artifacts owned by the account.
func (r *examRepository) CountByAccount(accountID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ExamArtifact{}).Where("account_id = ?", accountID).Count(&count).Error
	return count, err
}
