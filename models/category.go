package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 收支类别（全局共享）
type Category struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"size:50;not null;uniqueIndex"`
	Type      string         `json:"type" gorm:"size:20;not null;index"` // income / expense
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Category) TableName() string {
	return "categories"
}

// SubCategory 子类别，归属于某个类别
type SubCategory struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CategoryID uint           `json:"category_id" gorm:"index;not null"`
	Name       string         `json:"name" gorm:"size:50;not null;uniqueIndex"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	Category   *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (SubCategory) TableName() string {
	return "sub_categories"
}

// DefaultCategory 初始化时写入的默认类别
type DefaultCategory struct {
	Name string
	Type string
}

// GetDefaultCategories 获取默认类别
func GetDefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{"Salary", TransactionTypeIncome},
		{"Bonus", TransactionTypeIncome},
		{"Investment", TransactionTypeIncome},
		{"Food", TransactionTypeExpense},
		{"Transport", TransactionTypeExpense},
		{"Shopping", TransactionTypeExpense},
		{"Housing", TransactionTypeExpense},
		{"Health", TransactionTypeExpense},
		{"Entertainment", TransactionTypeExpense},
		{"Other", TransactionTypeExpense},
	}
}
