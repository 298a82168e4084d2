package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 交易类型
const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"
)

// Transaction 账本记录，创建时会同步变更所属账户余额
type Transaction struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"user_id" gorm:"index;not null"`
	AccountID     uint            `json:"account_id" gorm:"index;not null"`
	CategoryID    uint            `json:"category_id" gorm:"index;not null"`
	SubCategoryID *uint           `json:"sub_category_id,omitempty" gorm:"index"`
	Type          string          `json:"type" gorm:"size:20;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Description   string          `json:"description" gorm:"size:255"`
	Date          time.Time       `json:"date" gorm:"index;not null"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`

	Account     *Account     `json:"account,omitempty" gorm:"foreignKey:AccountID"`
	Category    *Category    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	SubCategory *SubCategory `json:"sub_category,omitempty" gorm:"foreignKey:SubCategoryID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// IsValidTransactionType 校验交易类型
func IsValidTransactionType(t string) bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}
