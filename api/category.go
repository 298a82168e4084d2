package api

import (
	"errors"
	"strings"

	"wallet/database"
	"wallet/models"
	"wallet/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler 收支类别管理
type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
	Type string `json:"type" binding:"required,oneof=income expense"`
}

type CategoryUpdateRequest struct {
	Name string `json:"name" binding:"omitempty,min=1,max=50"`
	Type string `json:"type" binding:"omitempty,oneof=income expense"`
}

// List 类别列表，可按 type 过滤（公开接口）
func (h *CategoryHandler) List(c *gin.Context) {
	q := database.DB.WithContext(c.Request.Context()).Order("id ASC")
	if t := c.Query("type"); t != "" {
		if !models.IsValidTransactionType(t) {
			BadRequest(c, "type 必须为 income 或 expense")
			return
		}
		q = q.Where("type = ?", t)
	}

	var list []models.Category
	if err := q.Find(&list).Error; err != nil {
		RespondError(c, err, "查询类别失败")
		return
	}
	Success(c, list)
}

// Get 类别详情
func (h *CategoryHandler) Get(c *gin.Context) {
	cat, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询类别失败")
		return
	}
	Success(c, cat)
}

// Create 创建类别，名称唯一
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	var existing models.Category
	if err := db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		BadRequest(c, "类别名称已存在")
		return
	}

	cat := models.Category{Name: req.Name, Type: req.Type}
	if err := db.Create(&cat).Error; err != nil {
		RespondError(c, err, "创建类别失败")
		return
	}
	Created(c, cat)
}

// Update 更新类别
func (h *CategoryHandler) Update(c *gin.Context) {
	cat, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询类别失败")
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		var existing models.Category
		if err := db.Where("name = ? AND id <> ?", name, cat.ID).First(&existing).Error; err == nil {
			BadRequest(c, "类别名称已存在")
			return
		}
		updates["name"] = name
	}
	if req.Type != "" && req.Type != cat.Type {
		// 已有交易的类别不能改变收支类型，否则与交易类型不一致
		var count int64
		if err := db.Model(&models.Transaction{}).Where("category_id = ?", cat.ID).Count(&count).Error; err != nil {
			RespondError(c, err, "更新类别失败")
			return
		}
		if count > 0 {
			BadRequest(c, "该类别已有交易记录，不能修改类型")
			return
		}
		updates["type"] = req.Type
	}
	if len(updates) == 0 {
		Success(c, cat)
		return
	}

	if err := db.Model(cat).Updates(updates).Error; err != nil {
		RespondError(c, err, "更新类别失败")
		return
	}
	if err := db.First(cat, cat.ID).Error; err != nil {
		RespondError(c, err, "查询类别失败")
		return
	}
	Success(c, cat)
}

// Delete 删除类别；仍被交易、子类别或预算引用时拒绝
func (h *CategoryHandler) Delete(c *gin.Context) {
	cat, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询类别失败")
		return
	}

	refs := []struct {
		model interface{}
		label string
	}{
		{&models.Transaction{}, "交易"},
		{&models.SubCategory{}, "子类别"},
		{&models.Budget{}, "预算"},
	}
	err = database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for _, ref := range refs {
			var count int64
			if err := tx.Model(ref.model).Where("category_id = ?", cat.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return service.ValidationError("该类别仍被%s引用，无法删除", ref.label)
			}
		}
		return tx.Delete(cat).Error
	})
	if err != nil {
		RespondError(c, err, "删除类别失败")
		return
	}
	NoContent(c)
}

func (h *CategoryHandler) find(c *gin.Context) (*models.Category, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	var cat models.Category
	if err := database.DB.WithContext(c.Request.Context()).First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.NotFoundError("类别不存在")
		}
		return nil, err
	}
	return &cat, nil
}
