package service

import (
	"errors"
	"testing"
	"time"

	"wallet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRange_Apply(t *testing.T) {
	db := newTestDB(t)
	acc := seedAccount(t, db, 1, "1000")
	food := categoryID(t, db, "Food")
	for _, at := range []time.Time{
		time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, db.Create(&models.Transaction{
			UserID: 1, AccountID: acc.ID, CategoryID: food,
			Type: models.TransactionTypeExpense, Amount: dec("1"), Date: at,
		}).Error)
	}

	count := func(r DateRange) int64 {
		var n int64
		require.NoError(t, r.Apply(db.Model(&models.Transaction{}), "date").Count(&n).Error)
		return n
	}

	// 开始日期取当天零点，结束日期包含当天
	jan := NewDateRange(
		time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, int64(2), count(jan))

	open := NewDateRange(time.Time{}, time.Time{})
	assert.Nil(t, open.Start)
	assert.Nil(t, open.End)
	assert.Equal(t, int64(4), count(open))

	from := NewDateRange(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), time.Time{})
	assert.Equal(t, int64(2), count(from))
}

func TestDateRange_Validate(t *testing.T) {
	same := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, NewDateRange(same, same).Validate())

	err := NewDateRange(same.AddDate(0, 0, 1), same).Validate()
	assert.True(t, errors.Is(err, ErrValidation))
}
