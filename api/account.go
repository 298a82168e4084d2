package api

import (
	"errors"
	"strings"

	"wallet/database"
	"wallet/middleware"
	"wallet/models"
	"wallet/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountHandler 资金账户管理
type AccountHandler struct{}

// NewAccountHandler 创建账户处理器
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// CreateAccountRequest 创建账户请求，balance 为开户余额
type CreateAccountRequest struct {
	Name    string          `json:"name" binding:"required,min=1,max=100"`
	Type    string          `json:"type" binding:"required,oneof=cash bank momo credit"`
	Balance decimal.Decimal `json:"balance"`
}

// UpdateAccountRequest 更新账户请求，不接受余额
type UpdateAccountRequest struct {
	Name string `json:"name" binding:"omitempty,min=1,max=100"`
	Type string `json:"type" binding:"omitempty,oneof=cash bank momo credit"`
}

// Create 创建账户
// POST /api/v1/accounts
func (h *AccountHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if req.Balance.IsNegative() {
		BadRequest(c, "开户余额不能为负数")
		return
	}
	if !models.HasMoneyScale(req.Balance) {
		BadRequest(c, "开户余额最多保留两位小数")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		BadRequest(c, "名称不能为空")
		return
	}

	account := models.Account{
		UserID:         userID,
		Name:           name,
		Type:           req.Type,
		Balance:        req.Balance,
		OpeningBalance: req.Balance,
	}
	if err := database.DB.WithContext(c.Request.Context()).Create(&account).Error; err != nil {
		RespondError(c, err, "创建账户失败")
		return
	}
	Created(c, account)
}

// List 当前用户的账户列表
// GET /api/v1/accounts
func (h *AccountHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var accounts []models.Account
	if err := database.DB.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).Order("id ASC").Find(&accounts).Error; err != nil {
		RespondError(c, err, "查询账户失败")
		return
	}
	Success(c, accounts)
}

// Get 账户详情
// GET /api/v1/accounts/:id
func (h *AccountHandler) Get(c *gin.Context) {
	account, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询账户失败")
		return
	}
	Success(c, account)
}

// Update 修改名称或类型，余额只能由交易变更
// PUT /api/v1/accounts/:id
func (h *AccountHandler) Update(c *gin.Context) {
	account, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询账户失败")
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Type != "" {
		updates["type"] = req.Type
	}
	if len(updates) > 0 {
		db := database.DB.WithContext(c.Request.Context())
		if err := db.Model(account).Updates(updates).Error; err != nil {
			RespondError(c, err, "更新账户失败")
			return
		}
		if err := db.First(account, account.ID).Error; err != nil {
			RespondError(c, err, "查询账户失败")
			return
		}
	}
	Success(c, account)
}

// Delete 删除账户；已有交易的账户不能删除
// DELETE /api/v1/accounts/:id
func (h *AccountHandler) Delete(c *gin.Context) {
	account, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询账户失败")
		return
	}

	// 检查与删除放在同一事务内，避免期间写入新交易
	err = database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Transaction{}).Where("account_id = ?", account.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return service.ValidationError("该账户已有交易记录，无法删除")
		}
		return tx.Delete(account).Error
	})
	if err != nil {
		RespondError(c, err, "删除账户失败")
		return
	}
	NoContent(c)
}

// Reconcile 对账：存储余额与账本推导余额的差异
// GET /api/v1/accounts/:id/reconcile
func (h *AccountHandler) Reconcile(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		RespondError(c, err, "")
		return
	}
	ledger := service.NewLedgerService(database.DB)
	drift, err := ledger.AccountDrift(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		RespondError(c, err, "对账失败")
		return
	}
	Success(c, drift)
}

func (h *AccountHandler) find(c *gin.Context) (*models.Account, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	var account models.Account
	err = database.DB.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, middleware.GetCurrentUserID(c)).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.NotFoundError("账户不存在")
		}
		return nil, err
	}
	return &account, nil
}
