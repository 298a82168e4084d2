package service

import (
	"context"
	"sort"

	"wallet/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MonthKeyLayout 月份分组键，如 "Jan 2024"
const MonthKeyLayout = "Jan 2006"

// MonthlyReport 单月收支汇总
type MonthlyReport struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Report 报表：按月汇总 + 总计 + 明细
type Report struct {
	Months       []MonthlyReport      `json:"months"`
	TotalIncome  decimal.Decimal      `json:"total_income"`
	TotalExpense decimal.Decimal      `json:"total_expense"`
	Net          decimal.Decimal      `json:"net"`
	Transactions []models.Transaction `json:"transactions"`
}

// BuildMonthlyReport 按自然月分组，结果按时间先后排序
func BuildMonthlyReport(txns []models.Transaction) []MonthlyReport {
	type bucket struct {
		order int
		MonthlyReport
	}
	buckets := make(map[string]*bucket)

	for _, t := range txns {
		key := t.Date.Format(MonthKeyLayout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				order: t.Date.Year()*12 + int(t.Date.Month()),
				MonthlyReport: MonthlyReport{
					Month:   key,
					Income:  decimal.Zero,
					Expense: decimal.Zero,
				},
			}
			buckets[key] = b
		}
		switch t.Type {
		case models.TransactionTypeIncome:
			b.Income = b.Income.Add(t.Amount)
		case models.TransactionTypeExpense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	result := make([]MonthlyReport, 0, len(ordered))
	for _, b := range ordered {
		b.Net = b.Income.Sub(b.Expense)
		result = append(result, b.MonthlyReport)
	}
	return result
}

// BuildReport 汇总月度数据与总计
func BuildReport(txns []models.Transaction) Report {
	income, expense := SumByType(txns)
	if txns == nil {
		txns = []models.Transaction{}
	}
	return Report{
		Months:       BuildMonthlyReport(txns),
		TotalIncome:  income,
		TotalExpense: expense,
		Net:          income.Sub(expense),
		Transactions: txns,
	}
}

// ReportFilter 报表过滤条件
type ReportFilter struct {
	UserID     uint
	AccountID  *uint
	CategoryID *uint
	Range      DateRange
}

// ReportService 报表查询
type ReportService struct {
	db *gorm.DB
}

// NewReportService 创建报表服务
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Transactions 按过滤条件查询交易，按日期升序
func (s *ReportService) Transactions(ctx context.Context, f ReportFilter) ([]models.Transaction, error) {
	if err := f.Range.Validate(); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Preload("Category").Preload("Account").
		Where("user_id = ?", f.UserID)
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	q = f.Range.Apply(q, "date")

	var txns []models.Transaction
	if err := q.Order("date ASC, id ASC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// Build 查询并生成报表
func (s *ReportService) Build(ctx context.Context, f ReportFilter) (Report, error) {
	txns, err := s.Transactions(ctx, f)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(txns), nil
}
