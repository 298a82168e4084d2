package api

import (
	"wallet/database"
	"wallet/middleware"
	"wallet/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler 收支报表
type ReportHandler struct{}

func NewReportHandler() *ReportHandler {
	return &ReportHandler{}
}

// Summary 当前用户全部交易的报表
// GET /api/v1/transactions/report?startDate&endDate
func (h *ReportHandler) Summary(c *gin.Context) {
	h.build(c, service.ReportFilter{})
}

// ByAccount 单个账户的报表
// GET /api/v1/transactions/:id/report
func (h *ReportHandler) ByAccount(c *gin.Context) {
	accountID, err := parseID(c, "id")
	if err != nil {
		RespondError(c, err, "")
		return
	}
	h.build(c, service.ReportFilter{AccountID: &accountID})
}

// ByCategory 单个类别的报表
// GET /api/v1/transactions/category/:categoryId/report
func (h *ReportHandler) ByCategory(c *gin.Context) {
	categoryID, err := parseID(c, "categoryId")
	if err != nil {
		RespondError(c, err, "")
		return
	}
	h.build(c, service.ReportFilter{CategoryID: &categoryID})
}

func (h *ReportHandler) build(c *gin.Context, f service.ReportFilter) {
	rng, err := parseDateRange(c)
	if err != nil {
		RespondError(c, err, "")
		return
	}
	f.UserID = middleware.GetCurrentUserID(c)
	f.Range = rng

	report, err := service.NewReportService(database.DB).Build(c.Request.Context(), f)
	if err != nil {
		RespondError(c, err, "生成报表失败")
		return
	}
	Success(c, report)
}
