package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 预算周期
const (
	BudgetPeriodMonthly = "monthly"
	BudgetPeriodYearly  = "yearly"
)

// Budget 类别预算，按需计算是否超支，不落库超支状态
type Budget struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	UserID     uint            `json:"user_id" gorm:"index;not null"`
	CategoryID uint            `json:"category_id" gorm:"index;not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Period     string          `json:"period" gorm:"size:20;not null"`
	StartDate  time.Time       `json:"start_date" gorm:"not null"`
	EndDate    time.Time       `json:"end_date" gorm:"not null"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `json:"-" gorm:"index"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Budget) TableName() string {
	return "budgets"
}

// IsValidBudgetPeriod 校验预算周期
func IsValidBudgetPeriod(p string) bool {
	return p == BudgetPeriodMonthly || p == BudgetPeriodYearly
}

// PeriodEnd 根据周期推算默认结束日期（含当天）
func PeriodEnd(period string, start time.Time) time.Time {
	if period == BudgetPeriodYearly {
		return start.AddDate(1, 0, -1)
	}
	return start.AddDate(0, 1, -1)
}
