package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ExamFox/app/models"
	"github.com/ManuelReschke/ExamFox/internal/pkg/testutil"
)

func TestAccountRepository_GetByAPIKeyHash(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)

	account, key, err := models.NewAccount("Bruno", "Bruno@Example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Create(account))

	found, err := repo.GetByAPIKeyHash(models.HashAPIKey(key))
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
	assert.Equal(t, "bruno@example.com", found.Email)

	_, err = repo.GetByAPIKeyHash("")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetByAPIKeyHash(models.HashAPIKey("exf_wrong"))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAccountRepository_ResetQuota(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)
	account := testutil.CreateAccount(t, db, testutil.WithQuotaUsed(7))

	require.NoError(t, repo.ResetQuota(account.ID))
	assert.Equal(t, 0, testutil.Reload(t, db, account.ID).QuotaUsed)

	// already zero is not an error
	require.NoError(t, repo.ResetQuota(account.ID))

	assert.ErrorIs(t, repo.ResetQuota(9999), gorm.ErrRecordNotFound)
}

func TestAccountRepository_ListAndCount(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)
	for i := 0; i < 3; i++ {
		testutil.CreateAccount(t, db)
	}

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	page, err := repo.List(1, 10)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Greater(t, page[0].ID, page[1].ID)
}
