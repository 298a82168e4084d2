package service

import (
	"context"
	"errors"
	"fmt"

	"wallet/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// BudgetStatus 预算执行情况
type BudgetStatus struct {
	BudgetID   uint            `json:"budget_id"`
	CategoryID uint            `json:"category_id"`
	Category   string          `json:"category"`
	Period     string          `json:"period"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Exceeded   bool            `json:"exceeded"`
	Alert      string          `json:"alert,omitempty"`
}

// BudgetEvaluator 计算预算周期内该类别的累计金额
type BudgetEvaluator struct {
	db          *gorm.DB
	concurrency int
}

// NewBudgetEvaluator 创建预算评估器
func NewBudgetEvaluator(db *gorm.DB) *BudgetEvaluator {
	return &BudgetEvaluator{db: db, concurrency: 4}
}

// SumAmounts 合计交易金额（不区分收支类型）
func SumAmounts(txns []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}

// SumByType 分别合计收入与支出
func SumByType(txns []models.Transaction) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, t := range txns {
		switch t.Type {
		case models.TransactionTypeIncome:
			income = income.Add(t.Amount)
		case models.TransactionTypeExpense:
			expense = expense.Add(t.Amount)
		}
	}
	return income, expense
}

// Evaluate 纯计算：spent 严格大于 limit 才算超支
func Evaluate(b *models.Budget, spent decimal.Decimal) BudgetStatus {
	status := BudgetStatus{
		BudgetID:   b.ID,
		CategoryID: b.CategoryID,
		Period:     b.Period,
		Limit:      b.Amount,
		Spent:      spent,
		Remaining:  b.Amount.Sub(spent),
	}
	name := fmt.Sprintf("#%d", b.CategoryID)
	if b.Category != nil {
		name = b.Category.Name
	}
	status.Category = name
	if spent.GreaterThan(b.Amount) {
		status.Exceeded = true
		status.Alert = "预算超支: " + name
	}
	return status
}

// EvaluateBudget 评估单个预算
func (e *BudgetEvaluator) EvaluateBudget(ctx context.Context, b *models.Budget) (BudgetStatus, error) {
	var txns []models.Transaction
	q := e.db.WithContext(ctx).
		Select("id", "amount").
		Where("user_id = ? AND category_id = ?", b.UserID, b.CategoryID)
	q = NewDateRange(b.StartDate, b.EndDate).Apply(q, "date")
	if err := q.Find(&txns).Error; err != nil {
		return BudgetStatus{}, err
	}
	return Evaluate(b, SumAmounts(txns)), nil
}

// EvaluateAll 并发评估用户全部预算，结果顺序与预算顺序一致
func (e *BudgetEvaluator) EvaluateAll(ctx context.Context, userID uint) ([]BudgetStatus, error) {
	var budgets []models.Budget
	if err := e.db.WithContext(ctx).Preload("Category").
		Where("user_id = ?", userID).Order("id").Find(&budgets).Error; err != nil {
		return nil, err
	}

	statuses := make([]BudgetStatus, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range budgets {
		i := i
		g.Go(func() error {
			st, err := e.EvaluateBudget(gctx, &budgets[i])
			if err != nil {
				return err
			}
			statuses[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// Alerts 只返回已超支预算的提示
func (e *BudgetEvaluator) Alerts(ctx context.Context, userID uint) ([]string, error) {
	statuses, err := e.EvaluateAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return AlertMessages(statuses), nil
}

// AlertMessages 提取超支提示
func AlertMessages(statuses []BudgetStatus) []string {
	alerts := []string{}
	for _, st := range statuses {
		if st.Exceeded {
			alerts = append(alerts, st.Alert)
		}
	}
	return alerts
}

// FindBudget 获取用户的预算（含类别）
func (e *BudgetEvaluator) FindBudget(ctx context.Context, userID, id uint) (*models.Budget, error) {
	var b models.Budget
	if err := e.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("预算不存在")
		}
		return nil, err
	}
	return &b, nil
}
