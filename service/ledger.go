package service

import (
	"context"
	"errors"
	"log"
	"time"

	"wallet/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService 账本服务：交易写入与账户余额变更在同一个数据库事务内完成
type LedgerService struct {
	db              *gorm.DB
	reconcileOnEdit bool
	publisher       EventPublisher
	now             func() time.Time
}

// LedgerOption 账本服务可选项
type LedgerOption func(*LedgerService)

// WithReconcileOnEdit 修改/删除交易时是否同步重算余额
func WithReconcileOnEdit(enabled bool) LedgerOption {
	return func(s *LedgerService) {
		s.reconcileOnEdit = enabled
	}
}

// WithPublisher 设置账本事件推送
func WithPublisher(p EventPublisher) LedgerOption {
	return func(s *LedgerService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// NewLedgerService 创建账本服务
func NewLedgerService(db *gorm.DB, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		db:              db,
		reconcileOnEdit: true,
		publisher:       NopPublisher{},
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransactionInput 创建交易参数
type TransactionInput struct {
	AccountID     uint
	CategoryID    uint
	SubCategoryID *uint
	Type          string
	Amount        decimal.Decimal
	Description   string
	Date          time.Time
}

// TransactionPatch 修改交易参数，nil 表示不修改
type TransactionPatch struct {
	AccountID     *uint
	CategoryID    *uint
	SubCategoryID *uint
	Type          *string
	Amount        *decimal.Decimal
	Description   *string
	Date          *time.Time
}

// AccountDrift 账户余额与账本的对账结果
type AccountDrift struct {
	AccountID      uint            `json:"account_id"`
	StoredBalance  decimal.Decimal `json:"stored_balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	LedgerIncome   decimal.Decimal `json:"ledger_income"`
	LedgerExpense  decimal.Decimal `json:"ledger_expense"`
	DerivedBalance decimal.Decimal `json:"derived_balance"`
	Drift          decimal.Decimal `json:"drift"`
	Consistent     bool            `json:"consistent"`
}

// CreateTransaction 写入交易并变更账户余额
// 收入 balance += amount；支出要求 balance >= amount，否则返回 ErrInsufficientFunds 且不落库
func (s *LedgerService) CreateTransaction(ctx context.Context, userID uint, in TransactionInput) (*models.Transaction, error) {
	if err := validateTransaction(in.Type, in.Amount); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	txn := models.Transaction{
		UserID:        userID,
		AccountID:     in.AccountID,
		CategoryID:    in.CategoryID,
		SubCategoryID: in.SubCategoryID,
		Type:          in.Type,
		Amount:        in.Amount,
		Description:   in.Description,
		Date:          in.Date,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, userID, &txn); err != nil {
			return err
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		if err := adjustBalance(tx, txn.AccountID, models.SignedAmount(txn.Type, txn.Amount)); err != nil {
			return err
		}
		return attachAccount(tx, &txn)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventTransactionCreated, &txn)
	return &txn, nil
}

// UpdateTransaction 修改交易
// reconcileOnEdit 关闭时只改账本记录，账户余额保持不变（可能与账本产生偏差）
func (s *LedgerService) UpdateTransaction(ctx context.Context, userID, id uint, patch TransactionPatch) (*models.Transaction, error) {
	var updated models.Transaction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Transaction
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundError("交易不存在")
			}
			return err
		}

		updated = existing
		patch.applyTo(&updated)
		if err := validateTransaction(updated.Type, updated.Amount); err != nil {
			return err
		}
		if err := checkReferences(tx, userID, &updated); err != nil {
			return err
		}

		if s.reconcileOnEdit {
			if err := reapply(tx, &existing, &updated); err != nil {
				return err
			}
		}

		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		return attachAccount(tx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventTransactionUpdated, &updated)
	return &updated, nil
}

// DeleteTransaction 删除交易，reconcileOnEdit 开启时回滚其对余额的影响
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id uint) error {
	var existing models.Transaction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundError("交易不存在")
			}
			return err
		}
		if s.reconcileOnEdit {
			if err := adjustBalance(tx, existing.AccountID, models.SignedAmount(existing.Type, existing.Amount).Neg()); err != nil {
				return err
			}
		}
		if err := tx.Delete(&existing).Error; err != nil {
			return err
		}
		return attachAccount(tx, &existing)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, EventTransactionDeleted, &existing)
	return nil
}

// GetTransaction 获取单条交易（含账户、类别、子类别）
func (s *LedgerService) GetTransaction(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Account").Preload("Category").Preload("SubCategory").
		Where("id = ? AND user_id = ?", id, userID).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("交易不存在")
		}
		return nil, err
	}
	return &txn, nil
}

// AccountDrift 对比账户存储余额与账本推导余额
func (s *LedgerService) AccountDrift(ctx context.Context, userID, accountID uint) (*AccountDrift, error) {
	db := s.db.WithContext(ctx)

	var account models.Account
	if err := db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("账户不存在")
		}
		return nil, err
	}

	var txns []models.Transaction
	if err := db.Select("id", "type", "amount").Where("account_id = ?", accountID).Find(&txns).Error; err != nil {
		return nil, err
	}

	income, expense := SumByType(txns)
	derived := account.OpeningBalance.Add(income).Sub(expense)
	drift := account.Balance.Sub(derived)
	return &AccountDrift{
		AccountID:      account.ID,
		StoredBalance:  account.Balance,
		OpeningBalance: account.OpeningBalance,
		LedgerIncome:   income,
		LedgerExpense:  expense,
		DerivedBalance: derived,
		Drift:          drift,
		Consistent:     drift.IsZero(),
	}, nil
}

func (p TransactionPatch) applyTo(t *models.Transaction) {
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
		// 换了类别且未指定子类别时清空原子类别
		if p.SubCategoryID == nil {
			t.SubCategoryID = nil
		}
	}
	if p.SubCategoryID != nil {
		t.SubCategoryID = p.SubCategoryID
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
}

func validateTransaction(txType string, amount decimal.Decimal) error {
	if !models.IsValidTransactionType(txType) {
		return ValidationError("交易类型必须为 income 或 expense")
	}
	if amount.IsNegative() {
		return ValidationError("金额不能为负数")
	}
	if !models.HasMoneyScale(amount) {
		return ValidationError("金额最多保留两位小数")
	}
	return nil
}

// checkReferences 校验账户归属、类别存在、交易类型与类别类型一致、子类别归属
func checkReferences(tx *gorm.DB, userID uint, t *models.Transaction) error {
	var account models.Account
	if err := tx.Where("id = ? AND user_id = ?", t.AccountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundError("账户不存在")
		}
		return err
	}

	var category models.Category
	if err := tx.First(&category, t.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ValidationError("无效的类别")
		}
		return err
	}
	if category.Type != t.Type {
		return ValidationError("交易类型 %s 与类别 %s 的类型 %s 不一致", t.Type, category.Name, category.Type)
	}

	if t.SubCategoryID != nil {
		var sub models.SubCategory
		if err := tx.First(&sub, *t.SubCategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ValidationError("无效的子类别")
			}
			return err
		}
		if sub.CategoryID != t.CategoryID {
			return ValidationError("子类别不属于所选类别")
		}
	}
	return nil
}

// adjustBalance 原子变更余额；扣减时以 balance >= 扣减额 为条件，条件不满足视为余额不足
// 运算与比较都按两位小数进行，sqlite 的 REAL 列不会累积浮点误差
func adjustBalance(tx *gorm.DB, accountID uint, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	q := tx.Model(&models.Account{}).Where("id = ?", accountID)
	if delta.IsNegative() {
		q = q.Where("ROUND(balance, 2) >= CAST(? AS DECIMAL(15,2))", delta.Neg())
	}
	res := q.Update("balance", gorm.Expr("ROUND(balance + CAST(? AS DECIMAL(15,2)), 2)", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if delta.IsNegative() {
			return InsufficientFundsError("余额不足")
		}
		return NotFoundError("账户不存在")
	}
	return nil
}

// reapply 撤销旧交易的影响并应用新交易；同一账户只做一次净额变更
func reapply(tx *gorm.DB, old, updated *models.Transaction) error {
	oldEffect := models.SignedAmount(old.Type, old.Amount)
	newEffect := models.SignedAmount(updated.Type, updated.Amount)

	if old.AccountID == updated.AccountID {
		return adjustBalance(tx, updated.AccountID, newEffect.Sub(oldEffect))
	}
	if err := adjustBalance(tx, old.AccountID, oldEffect.Neg()); err != nil {
		return err
	}
	return adjustBalance(tx, updated.AccountID, newEffect)
}

func attachAccount(tx *gorm.DB, t *models.Transaction) error {
	var account models.Account
	if err := tx.First(&account, t.AccountID).Error; err != nil {
		return err
	}
	t.Account = &account
	return nil
}

func (s *LedgerService) publish(ctx context.Context, eventType string, t *models.Transaction) {
	event := NewLedgerEvent(eventType, t, s.now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("账本事件推送失败 (%s, 交易 %d): %v", eventType, t.ID, err)
	}
}
