package api

import (
	"wallet/config"
	"wallet/database"
	"wallet/middleware"
	"wallet/models"
	"wallet/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler 交易（账本）处理器
type TransactionHandler struct {
	cfg       *config.Config
	publisher service.EventPublisher
}

// NewTransactionHandler 创建交易处理器
func NewTransactionHandler(cfg *config.Config, publisher service.EventPublisher) *TransactionHandler {
	if publisher == nil {
		publisher = service.NopPublisher{}
	}
	return &TransactionHandler{cfg: cfg, publisher: publisher}
}

// CreateTransactionRequest 创建交易请求，date 缺省为当前时间
type CreateTransactionRequest struct {
	AccountID     uint             `json:"accountId" binding:"required"`
	CategoryID    uint             `json:"categoryId" binding:"required"`
	SubCategoryID *uint            `json:"subCategoryId"`
	Type          string           `json:"type" binding:"required,oneof=income expense"`
	Amount        *decimal.Decimal `json:"amount" binding:"required"`
	Description   string           `json:"description" binding:"max=255"`
	Date          string           `json:"date"`
}

// UpdateTransactionRequest 修改交易请求，未提供的字段保持不变
type UpdateTransactionRequest struct {
	AccountID     *uint            `json:"accountId"`
	CategoryID    *uint            `json:"categoryId"`
	SubCategoryID *uint            `json:"subCategoryId"`
	Type          *string          `json:"type" binding:"omitempty,oneof=income expense"`
	Amount        *decimal.Decimal `json:"amount"`
	Description   *string          `json:"description" binding:"omitempty,max=255"`
	Date          *string          `json:"date"`
}

func (h *TransactionHandler) ledger() *service.LedgerService {
	return service.NewLedgerService(database.DB,
		service.WithReconcileOnEdit(h.cfg.Ledger.ReconcileOnEdit),
		service.WithPublisher(h.publisher),
	)
}

// Create 创建交易并同步变更账户余额
// POST /api/v1/transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		RespondError(c, err, "")
		return
	}

	txn, err := h.ledger().CreateTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), service.TransactionInput{
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		Type:          req.Type,
		Amount:        *req.Amount,
		Description:   req.Description,
		Date:          date,
	})
	if err != nil {
		RespondError(c, err, "创建交易失败")
		return
	}
	Created(c, txn)
}

// List 交易列表，支持 accountId / categoryId / type / startDate / endDate 过滤与分页
// GET /api/v1/transactions
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	page, pageSize := parsePage(c)

	rng, err := parseDateRange(c)
	if err != nil {
		RespondError(c, err, "")
		return
	}

	q := database.DB.WithContext(c.Request.Context()).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if raw := c.Query("accountId"); raw != "" {
		id, err := parseUint(raw, "accountId")
		if err != nil {
			RespondError(c, err, "")
			return
		}
		q = q.Where("account_id = ?", id)
	}
	if raw := c.Query("categoryId"); raw != "" {
		id, err := parseUint(raw, "categoryId")
		if err != nil {
			RespondError(c, err, "")
			return
		}
		q = q.Where("category_id = ?", id)
	}
	if t := c.Query("type"); t != "" {
		if !models.IsValidTransactionType(t) {
			BadRequest(c, "type 必须为 income 或 expense")
			return
		}
		q = q.Where("type = ?", t)
	}
	q = rng.Apply(q, "date")

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		RespondError(c, err, "查询交易失败")
		return
	}

	var list []models.Transaction
	if err := q.Preload("Category").Preload("SubCategory").
		Order("date DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&list).Error; err != nil {
		RespondError(c, err, "查询交易失败")
		return
	}

	Success(c, NewPageResponse(total, page, pageSize, list))
}

// Get 交易详情
// GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		RespondError(c, err, "")
		return
	}
	txn, err := h.ledger().GetTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		RespondError(c, err, "查询交易失败")
		return
	}
	Success(c, txn)
}

// Update 修改交易
// PUT /api/v1/transactions/:id
func (h *TransactionHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		RespondError(c, err, "")
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	patch := service.TransactionPatch{
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		SubCategoryID: req.SubCategoryID,
		Type:          req.Type,
		Amount:        req.Amount,
		Description:   req.Description,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			RespondError(c, err, "")
			return
		}
		if !date.IsZero() {
			patch.Date = &date
		}
	}

	txn, err := h.ledger().UpdateTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), id, patch)
	if err != nil {
		RespondError(c, err, "修改交易失败")
		return
	}
	Success(c, txn)
}

// Delete 删除交易
// DELETE /api/v1/transactions/:id
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		RespondError(c, err, "")
		return
	}
	if err := h.ledger().DeleteTransaction(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		RespondError(c, err, "删除交易失败")
		return
	}
	NoContent(c)
}
