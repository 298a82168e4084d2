package api

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func reportRouter(userID uint) *gin.Engine {
	h := NewReportHandler()
	e := NewExportHandler()
	router := gin.New()
	router.Use(setUserIDMiddleware(userID))
	router.GET("/transactions/report", h.Summary)
	router.GET("/transactions/export/csv", e.ExportCSV)
	router.GET("/transactions/export/excel", e.ExportExcel)
	router.GET("/transactions/category/:categoryId/report", h.ByCategory)
	router.GET("/transactions/:id/report", h.ByAccount)
	return router
}

type reportFixture struct {
	checking, savings uint
	food, salary      uint
}

// seedReport 两个账户跨三个月的交易，另有他人的一笔
func seedReport(t *testing.T, db *gorm.DB) reportFixture {
	t.Helper()
	f := reportFixture{
		checking: seedAccount(t, db, 1, "Checking", "1000").ID,
		savings:  seedAccount(t, db, 1, "Savings", "0").ID,
		food:     categoryID(t, db, "Food"),
		salary:   categoryID(t, db, "Salary"),
	}
	tr := transactionRouter(1, true)
	postTransaction(t, tr, f.checking, f.salary, "income", "3000", "2024-03-01")
	postTransaction(t, tr, f.checking, f.food, "expense", "120.50", "2024-01-15")
	postTransaction(t, tr, f.savings, f.salary, "income", "200", "2024-01-20")
	postTransaction(t, tr, f.checking, f.food, "expense", "80", "2024-02-03")

	other := seedAccount(t, db, 2, "Other", "500")
	postTransaction(t, transactionRouter(2, true), other.ID, f.food, "expense", "99", "2024-01-10")
	return f
}

func TestReportHandler_Summary(t *testing.T) {
	db := setupSQLiteDB(t)
	seedReport(t, db)

	w := doJSON(reportRouter(1), "GET", "/transactions/report", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	data := dataOf(t, w)

	assert.EqualValues(t, 3200, data["total_income"])
	assert.EqualValues(t, 200.5, data["total_expense"])
	assert.EqualValues(t, 2999.5, data["net"])
	assert.Len(t, data["transactions"], 4)

	months := data["months"].([]interface{})
	require.Len(t, months, 3)
	var keys []string
	for _, m := range months {
		keys = append(keys, m.(map[string]interface{})["month"].(string))
	}
	assert.Equal(t, []string{"Jan 2024", "Feb 2024", "Mar 2024"}, keys)

	jan := months[0].(map[string]interface{})
	assert.EqualValues(t, 200, jan["income"])
	assert.EqualValues(t, 120.5, jan["expense"])
	assert.EqualValues(t, 79.5, jan["net"])
}

func TestReportHandler_Filters(t *testing.T) {
	db := setupSQLiteDB(t)
	f := seedReport(t, db)
	r := reportRouter(1)

	w := doJSON(r, "GET", fmt.Sprintf("/transactions/%d/report", f.savings), nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Len(t, data["transactions"], 1)
	assert.EqualValues(t, 200, data["total_income"])

	w = doJSON(r, "GET", fmt.Sprintf("/transactions/category/%d/report", f.food), nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	data = dataOf(t, w)
	assert.Len(t, data["transactions"], 2)
	assert.EqualValues(t, 0, data["total_income"])
	assert.EqualValues(t, 200.5, data["total_expense"])

	w = doJSON(r, "GET", "/transactions/report?startDate=2024-02-01&endDate=2024-02-29", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	data = dataOf(t, w)
	assert.Len(t, data["transactions"], 1)
	assert.Len(t, data["months"], 1)

	w = doJSON(r, "GET", "/transactions/report?startDate=2024-03-01&endDate=2024-02-01", nil)
	assert.Equal(t, 400, w.Code)
}

func TestReportHandler_Empty(t *testing.T) {
	setupSQLiteDB(t)

	w := doJSON(reportRouter(1), "GET", "/transactions/report", nil)
	require.Equal(t, 200, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, []interface{}{}, data["transactions"])
	assert.Equal(t, []interface{}{}, data["months"])
	assert.EqualValues(t, 0, data["net"])
}

func TestExportHandler_ExportCSV(t *testing.T) {
	db := setupSQLiteDB(t)
	seedReport(t, db)

	w := doJSON(reportRouter(1), "GET", "/transactions/export/csv?startDate=2024-01-01&endDate=2024-01-31", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transactions_2024-01-01_2024-01-31.csv")

	body := w.Body.String()
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\xEF\xBB\xBF")))
	assert.Contains(t, body, "ID,日期,类型,账户,类别,金额,描述")
	assert.Contains(t, body, "expense,Checking,Food,120.50")
	assert.Contains(t, body, "income,Savings,Salary,200.00")
	assert.NotContains(t, body, "99.00")
}

func TestExportHandler_InvalidRange(t *testing.T) {
	setupSQLiteDB(t)

	w := doJSON(reportRouter(1), "GET", "/transactions/export/csv?startDate=bad", nil)
	assert.Equal(t, 400, w.Code)
}

func TestExportHandler_ExportExcel(t *testing.T) {
	db := setupSQLiteDB(t)
	seedReport(t, db)

	w := doJSON(reportRouter(1), "GET", "/transactions/export/excel", nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, exportHeaders, rows[0])
	// 按日期升序，第一行为 1 月的餐饮支出
	assert.Equal(t, "Food", rows[1][4])
	assert.Equal(t, "120.5", rows[1][5])

	summary := rows[5]
	assert.Equal(t, "合计", summary[0])
	assert.Equal(t, "3200", summary[3])
	assert.Equal(t, "200.5", summary[5])
	assert.Contains(t, summary[6], "结余 2999.50")
}
