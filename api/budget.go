package api

import (
	"log"
	"strconv"

	"wallet/config"
	"wallet/database"
	"wallet/middleware"
	"wallet/models"
	"wallet/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetHandler 预算管理
type BudgetHandler struct {
	mailer service.Mailer
}

func NewBudgetHandler(cfg *config.Config) *BudgetHandler {
	return &BudgetHandler{mailer: service.NewEmailService(&cfg.Email)}
}

// BudgetRequest 创建预算请求，endDate 缺省按周期推算
type BudgetRequest struct {
	CategoryID uint             `json:"categoryId" binding:"required"`
	Amount     *decimal.Decimal `json:"amount" binding:"required"`
	Period     string           `json:"period" binding:"required,oneof=monthly yearly"`
	StartDate  string           `json:"startDate" binding:"required"`
	EndDate    string           `json:"endDate"`
}

// BudgetUpdateRequest 修改预算请求
type BudgetUpdateRequest struct {
	CategoryID *uint            `json:"categoryId"`
	Amount     *decimal.Decimal `json:"amount"`
	Period     *string          `json:"period" binding:"omitempty,oneof=monthly yearly"`
	StartDate  *string          `json:"startDate"`
	EndDate    *string          `json:"endDate"`
}

// BudgetAlerts 超支预警汇总
type BudgetAlerts struct {
	Statuses []service.BudgetStatus `json:"statuses"`
	Alerts   []string               `json:"alerts"`
	Notified bool                   `json:"notified"`
}

func (h *BudgetHandler) evaluator() *service.BudgetEvaluator {
	return service.NewBudgetEvaluator(database.DB)
}

// Create 创建预算
// POST /api/v1/budgets
func (h *BudgetHandler) Create(c *gin.Context) {
	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		RespondError(c, err, "")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		RespondError(c, err, "")
		return
	}
	if end.IsZero() {
		end = models.PeriodEnd(req.Period, start)
	}

	budget := models.Budget{
		UserID:     middleware.GetCurrentUserID(c),
		CategoryID: req.CategoryID,
		Amount:     *req.Amount,
		Period:     req.Period,
		StartDate:  start,
		EndDate:    end,
	}
	if err := validateBudget(database.DB.WithContext(c.Request.Context()), &budget); err != nil {
		RespondError(c, err, "创建预算失败")
		return
	}
	if err := database.DB.WithContext(c.Request.Context()).Create(&budget).Error; err != nil {
		RespondError(c, err, "创建预算失败")
		return
	}
	Created(c, budget)
}

// List 当前用户的预算列表
// GET /api/v1/budgets
func (h *BudgetHandler) List(c *gin.Context) {
	var budgets []models.Budget
	if err := database.DB.WithContext(c.Request.Context()).Preload("Category").
		Where("user_id = ?", middleware.GetCurrentUserID(c)).
		Order("id ASC").Find(&budgets).Error; err != nil {
		RespondError(c, err, "查询预算失败")
		return
	}
	Success(c, budgets)
}

// Get 预算详情
// GET /api/v1/budgets/:id
func (h *BudgetHandler) Get(c *gin.Context) {
	budget, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询预算失败")
		return
	}
	Success(c, budget)
}

// Update 修改预算
// PUT /api/v1/budgets/:id
func (h *BudgetHandler) Update(c *gin.Context) {
	budget, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询预算失败")
		return
	}

	var req BudgetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if req.CategoryID != nil {
		budget.CategoryID = *req.CategoryID
		budget.Category = nil
	}
	if req.Amount != nil {
		budget.Amount = *req.Amount
	}
	if req.Period != nil {
		budget.Period = *req.Period
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			RespondError(c, err, "")
			return
		}
		if !start.IsZero() {
			budget.StartDate = start
		}
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			RespondError(c, err, "")
			return
		}
		if end.IsZero() {
			end = models.PeriodEnd(budget.Period, budget.StartDate)
		}
		budget.EndDate = end
	}

	if err := validateBudget(database.DB.WithContext(c.Request.Context()), budget); err != nil {
		RespondError(c, err, "修改预算失败")
		return
	}
	if err := database.DB.WithContext(c.Request.Context()).Omit("Category").Save(budget).Error; err != nil {
		RespondError(c, err, "修改预算失败")
		return
	}
	Success(c, budget)
}

// Delete 删除预算
// DELETE /api/v1/budgets/:id
func (h *BudgetHandler) Delete(c *gin.Context) {
	budget, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询预算失败")
		return
	}
	if err := database.DB.WithContext(c.Request.Context()).Delete(budget).Error; err != nil {
		RespondError(c, err, "删除预算失败")
		return
	}
	NoContent(c)
}

// Status 计算单个预算的执行情况
// GET /api/v1/budgets/:id/status
func (h *BudgetHandler) Status(c *gin.Context) {
	budget, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询预算失败")
		return
	}
	status, err := h.evaluator().EvaluateBudget(c.Request.Context(), budget)
	if err != nil {
		RespondError(c, err, "计算预算失败")
		return
	}
	Success(c, status)
}

// Alerts 全部预算的执行情况及超支提示；notify=true 且有超支时发送提醒邮件
// GET /api/v1/budgets/alerts
func (h *BudgetHandler) Alerts(c *gin.Context) {
	notify := false
	if raw := c.Query("notify"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			BadRequest(c, "notify 参数无效")
			return
		}
		notify = v
	}

	userID := middleware.GetCurrentUserID(c)
	statuses, err := h.evaluator().EvaluateAll(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err, "计算预算失败")
		return
	}

	result := BudgetAlerts{Statuses: statuses, Alerts: service.AlertMessages(statuses)}
	if notify && len(result.Alerts) > 0 {
		result.Notified = h.sendAlerts(c, userID, result.Alerts)
	}
	Success(c, result)
}

// sendAlerts 邮件发送失败只记录日志，不影响预算结果返回
func (h *BudgetHandler) sendAlerts(c *gin.Context, userID uint, alerts []string) bool {
	var user models.User
	if err := database.DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		log.Printf("[%s] 查询用户失败 (user %d): %v", middleware.GetRequestID(c), userID, err)
		return false
	}
	if err := h.mailer.SendBudgetAlertEmail(user.Email, user.Username, alerts); err != nil {
		log.Printf("[%s] 预算超支提醒发送失败 (user %d): %v", middleware.GetRequestID(c), userID, err)
		return false
	}
	return true
}

func (h *BudgetHandler) find(c *gin.Context) (*models.Budget, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.evaluator().FindBudget(c.Request.Context(), middleware.GetCurrentUserID(c), id)
}

func validateBudget(db *gorm.DB, b *models.Budget) error {
	if b.Amount.IsNegative() {
		return service.ValidationError("预算金额不能为负数")
	}
	if !models.HasMoneyScale(b.Amount) {
		return service.ValidationError("预算金额最多保留两位小数")
	}
	if !models.IsValidBudgetPeriod(b.Period) {
		return service.ValidationError("period 必须为 monthly 或 yearly")
	}
	if b.EndDate.Before(b.StartDate) {
		return service.ValidationError("结束日期不能早于开始日期")
	}
	return ensureCategory(db, b.CategoryID)
}
