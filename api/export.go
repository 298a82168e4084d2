package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wallet/database"
	"wallet/middleware"
	"wallet/models"
	"wallet/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 账本导出
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

var exportHeaders = []string{"ID", "日期", "类型", "账户", "类别", "金额", "描述"}

func exportRow(t models.Transaction) []string {
	account, category := "", ""
	if t.Account != nil {
		account = t.Account.Name
	}
	if t.Category != nil {
		category = t.Category.Name
	}
	return []string{
		strconv.FormatUint(uint64(t.ID), 10),
		t.Date.Format("2006-01-02 15:04:05"),
		t.Type,
		account,
		category,
		t.Amount.StringFixed(2),
		t.Description,
	}
}

func (h *ExportHandler) load(c *gin.Context) ([]models.Transaction, bool) {
	rng, err := parseDateRange(c)
	if err != nil {
		RespondError(c, err, "")
		return nil, false
	}
	txns, err := service.NewReportService(database.DB).Transactions(c.Request.Context(), service.ReportFilter{
		UserID: middleware.GetCurrentUserID(c),
		Range:  rng,
	})
	if err != nil {
		RespondError(c, err, "查询数据失败")
		return nil, false
	}
	return txns, true
}

func exportFilename(c *gin.Context, ext string) string {
	start, end := c.DefaultQuery("startDate", "all"), c.DefaultQuery("endDate", time.Now().Format("2006-01-02"))
	return fmt.Sprintf("transactions_%s_%s.%s", start, end, ext)
}

// ExportCSV 导出交易为 CSV（带 BOM，Excel 可直接打开）
// GET /api/v1/transactions/export/csv?startDate&endDate
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	txns, ok := h.load(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	if err := writer.Write(exportHeaders); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}
	for _, t := range txns {
		if err := writer.Write(exportRow(t)); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename(c, "csv")))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出交易为 xlsx，末行为收支合计
// GET /api/v1/transactions/export/excel?startDate&endDate
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	txns, ok := h.load(c)
	if !ok {
		return
	}

	f, err := buildWorkbook(txns)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 Excel 失败"))
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(exportFilename(c, "xlsx")))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

const exportSheet = "交易记录"

func buildWorkbook(txns []models.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"0F766E"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FDE68A"}, Pattern: 1},
		Border: border,
	})

	f.SetColWidth(exportSheet, "A", "A", 8)
	f.SetColWidth(exportSheet, "B", "B", 20)
	f.SetColWidth(exportSheet, "C", "F", 12)
	f.SetColWidth(exportSheet, "G", "G", 30)

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		f.Close()
		return nil, err
	}
	f.SetCellStyle(exportSheet, "A1", "G1", headerStyle)

	for i, t := range txns {
		row := exportRow(t)
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		// 金额列写数值，便于表格内求和
		cells[5] = t.Amount.InexactFloat64()
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
			f.Close()
			return nil, err
		}
	}

	income, expense := service.SumByType(txns)
	summaryRow := len(txns) + 2
	summary := []interface{}{
		"合计", "",
		"收入", income.InexactFloat64(),
		"支出", expense.InexactFloat64(),
		fmt.Sprintf("结余 %s，共 %d 条记录", income.Sub(expense).StringFixed(2), len(txns)),
	}
	if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", summaryRow), &summary); err != nil {
		f.Close()
		return nil, err
	}
	f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	return f, nil
}
