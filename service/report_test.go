package service

import (
	"context"
	"testing"
	"time"

	"wallet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMonthlyReport(t *testing.T) {
	txns := []models.Transaction{
		{Type: models.TransactionTypeIncome, Amount: dec("100"), Date: day(2024, 1, 15)},
		{Type: models.TransactionTypeExpense, Amount: dec("40"), Date: day(2024, 2, 3)},
	}

	got := BuildMonthlyReport(txns)
	require.Len(t, got, 2)

	assert.Equal(t, "Jan 2024", got[0].Month)
	assert.True(t, got[0].Income.Equal(dec("100")))
	assert.True(t, got[0].Expense.IsZero())
	assert.True(t, got[0].Net.Equal(dec("100")))

	assert.Equal(t, "Feb 2024", got[1].Month)
	assert.True(t, got[1].Income.IsZero())
	assert.True(t, got[1].Expense.Equal(dec("40")))
	assert.True(t, got[1].Net.Equal(dec("-40")))
}

func TestBuildMonthlyReport_ChronologicalOrder(t *testing.T) {
	txns := []models.Transaction{
		{Type: "expense", Amount: dec("1"), Date: day(2024, 3, 1)},
		{Type: "expense", Amount: dec("1"), Date: day(2023, 12, 1)},
		{Type: "income", Amount: dec("1"), Date: day(2024, 1, 1)},
		{Type: "income", Amount: dec("1"), Date: day(2024, 3, 20)},
	}

	var months []string
	for _, m := range BuildMonthlyReport(txns) {
		months = append(months, m.Month)
	}
	assert.Equal(t, []string{"Dec 2023", "Jan 2024", "Mar 2024"}, months)
}

func TestBuildMonthlyReport_Totals(t *testing.T) {
	txns := []models.Transaction{
		{Type: "income", Amount: dec("12.5"), Date: day(2024, 1, 1)},
		{Type: "expense", Amount: dec("3"), Date: day(2024, 1, 2)},
		{Type: "expense", Amount: dec("7.5"), Date: day(2024, 4, 9)},
		{Type: "income", Amount: dec("1"), Date: day(2025, 4, 9)},
	}
	income, expense := SumByType(txns)

	sumIncome, sumExpense := dec("0"), dec("0")
	for _, m := range BuildMonthlyReport(txns) {
		assert.True(t, m.Net.Equal(m.Income.Sub(m.Expense)), m.Month)
		sumIncome = sumIncome.Add(m.Income)
		sumExpense = sumExpense.Add(m.Expense)
	}
	assert.True(t, sumIncome.Equal(income))
	assert.True(t, sumExpense.Equal(expense))
}

func TestBuildReport_Empty(t *testing.T) {
	r := BuildReport(nil)
	assert.NotNil(t, r.Months)
	assert.NotNil(t, r.Transactions)
	assert.True(t, r.Net.IsZero())
}

func TestReportService_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := seedAccount(t, db, 1, "0")
	b := seedAccount(t, db, 1, "0")
	food := categoryID(t, db, "Food")
	salary := categoryID(t, db, "Salary")

	seedTxn(t, db, 1, a.ID, salary, "income", "100", day(2024, 1, 15))
	seedTxn(t, db, 1, a.ID, food, "expense", "40", day(2024, 2, 3))
	seedTxn(t, db, 1, b.ID, food, "expense", "5", day(2024, 2, 28))
	seedTxn(t, db, 2, a.ID, food, "expense", "999", day(2024, 2, 3))

	svc := NewReportService(db)

	r, err := svc.Build(ctx, ReportFilter{UserID: 1})
	require.NoError(t, err)
	assert.Len(t, r.Transactions, 3)
	assert.True(t, r.TotalIncome.Equal(dec("100")))
	assert.True(t, r.TotalExpense.Equal(dec("45")))
	assert.True(t, r.Net.Equal(dec("55")))

	r, err = svc.Build(ctx, ReportFilter{UserID: 1, AccountID: &a.ID})
	require.NoError(t, err)
	require.Len(t, r.Months, 2)
	assert.Equal(t, "Jan 2024", r.Months[0].Month)
	assert.True(t, r.Months[1].Net.Equal(dec("-40")))

	r, err = svc.Build(ctx, ReportFilter{UserID: 1, CategoryID: &food})
	require.NoError(t, err)
	assert.Len(t, r.Transactions, 2)

	// 结束日期包含当天
	rng := NewDateRange(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))
	r, err = svc.Build(ctx, ReportFilter{UserID: 1, Range: rng})
	require.NoError(t, err)
	assert.Len(t, r.Transactions, 2)
	assert.True(t, r.TotalExpense.Equal(dec("45")))
	require.NotNil(t, r.Transactions[0].Category)
}

func TestReportService_InvalidRange(t *testing.T) {
	db := newTestDB(t)
	rng := NewDateRange(day(2024, 3, 1), day(2024, 2, 1))
	_, err := NewReportService(db).Build(context.Background(), ReportFilter{UserID: 1, Range: rng})
	assert.ErrorIs(t, err, ErrValidation)
}
