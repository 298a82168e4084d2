package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"wallet/database"
	"wallet/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 内存 sqlite，已迁移并写入默认类别
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func seedAccount(t *testing.T, db *gorm.DB, userID uint, opening string) *models.Account {
	t.Helper()
	a := &models.Account{
		UserID:         userID,
		Name:           "Main",
		Type:           models.AccountTypeBank,
		Balance:        dec(opening),
		OpeningBalance: dec(opening),
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func categoryID(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	var c models.Category
	require.NoError(t, db.Where("name = ?", name).First(&c).Error)
	return c.ID
}

func balanceOf(t *testing.T, db *gorm.DB, accountID uint) decimal.Decimal {
	t.Helper()
	var a models.Account
	require.NoError(t, db.First(&a, accountID).Error)
	return a.Balance
}

// recordingPublisher 记录推送的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
