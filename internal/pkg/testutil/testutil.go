// Package testutil provides shared fixtures for package tests: a migrated
// SQLite-backed gorm handle and account builders.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/ExamFox/app/models"
	"github.com/ManuelReschke/ExamFox/internal/pkg/database"
)

// NewDB opens a fresh file-backed SQLite database with the core schema. A
// single connection serialises writers the way row locks do on MySQL.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "examfox.db") + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

var accountSeq atomic.Int64

// CreateAccount inserts a free account and applies the given mutators first.
func CreateAccount(t testing.TB, db *gorm.DB, mutators ...func(*models.Account)) *models.Account {
	t.Helper()

	a, _, err := models.NewAccount("Ana Souza", fmt.Sprintf("ana%d@example.com", accountSeq.Add(1)))
	require.NoError(t, err)
	for _, m := range mutators {
		m(a)
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// WithQuotaUsed sets the usage counter.
func WithQuotaUsed(n int) func(*models.Account) {
	return func(a *models.Account) { a.QuotaUsed = n }
}

// WithSubscription opens a paid window ending at end.
func WithSubscription(plan string, end time.Time) func(*models.Account) {
	return func(a *models.Account) {
		start := end.Add(-30 * 24 * time.Hour)
		a.SubscriptionStatus = models.SubscriptionStatusActive
		a.SubscriptionPlan = plan
		a.PlanTier = plan
		a.SubscriptionStart = &start
		a.SubscriptionEnd = &end
	}
}

// WithCustomer pre-provisions the payment processor customer id.
func WithCustomer(id string) func(*models.Account) {
	return func(a *models.Account) { a.ExternalCustomerID = id }
}

// Reload fetches the current row of an account.
func Reload(t testing.TB, db *gorm.DB, id uint) *models.Account {
	t.Helper()

	var a models.Account
	require.NoError(t, db.First(&a, id).Error)
	return &a
}
