package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 账户类型
const (
	AccountTypeCash   = "cash"
	AccountTypeBank   = "bank"
	AccountTypeMomo   = "momo"
	AccountTypeCredit = "credit"
)

// Account 资金账户
// Balance 只能通过账本（交易）变更，OpeningBalance 为开户时的初始余额
type Account struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	UserID         uint            `json:"user_id" gorm:"index;not null"`
	Name           string          `json:"name" gorm:"size:100;not null"`
	Type           string          `json:"type" gorm:"size:20;not null"`
	Balance        decimal.Decimal `json:"balance" gorm:"type:decimal(15,2);not null;default:0"`
	OpeningBalance decimal.Decimal `json:"opening_balance" gorm:"type:decimal(15,2);not null;default:0"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Account) TableName() string {
	return "accounts"
}

// IsValidAccountType 校验账户类型
func IsValidAccountType(t string) bool {
	switch t {
	case AccountTypeCash, AccountTypeBank, AccountTypeMomo, AccountTypeCredit:
		return true
	}
	return false
}
