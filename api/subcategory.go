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

// SubCategoryHandler 子类别管理
type SubCategoryHandler struct{}

func NewSubCategoryHandler() *SubCategoryHandler {
	return &SubCategoryHandler{}
}

type SubCategoryRequest struct {
	CategoryID uint   `json:"categoryId" binding:"required"`
	Name       string `json:"name" binding:"required,min=1,max=50"`
}

type SubCategoryUpdateRequest struct {
	CategoryID *uint  `json:"categoryId"`
	Name       string `json:"name" binding:"omitempty,min=1,max=50"`
}

// List 子类别列表，可按 categoryId 过滤（公开接口）
func (h *SubCategoryHandler) List(c *gin.Context) {
	q := database.DB.WithContext(c.Request.Context()).Preload("Category").Order("id ASC")
	if raw := c.Query("categoryId"); raw != "" {
		categoryID, err := parseUint(raw, "categoryId")
		if err != nil {
			RespondError(c, err, "")
			return
		}
		q = q.Where("category_id = ?", categoryID)
	}

	var list []models.SubCategory
	if err := q.Find(&list).Error; err != nil {
		RespondError(c, err, "查询子类别失败")
		return
	}
	Success(c, list)
}

// Get 子类别详情
func (h *SubCategoryHandler) Get(c *gin.Context) {
	sub, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询子类别失败")
		return
	}
	Success(c, sub)
}

// Create 创建子类别
func (h *SubCategoryHandler) Create(c *gin.Context) {
	var req SubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		BadRequest(c, "名称不能为空")
		return
	}
	db := database.DB.WithContext(c.Request.Context())
	if err := ensureCategory(db, req.CategoryID); err != nil {
		RespondError(c, err, "查询类别失败")
		return
	}

	var existing models.SubCategory
	if err := db.Where("name = ?", name).First(&existing).Error; err == nil {
		BadRequest(c, "子类别名称已存在")
		return
	}

	sub := models.SubCategory{CategoryID: req.CategoryID, Name: name}
	if err := db.Create(&sub).Error; err != nil {
		RespondError(c, err, "创建子类别失败")
		return
	}
	Created(c, sub)
}

// Update 更新子类别
func (h *SubCategoryHandler) Update(c *gin.Context) {
	sub, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询子类别失败")
		return
	}

	var req SubCategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		var existing models.SubCategory
		if err := db.Where("name = ? AND id <> ?", name, sub.ID).First(&existing).Error; err == nil {
			BadRequest(c, "子类别名称已存在")
			return
		}
		updates["name"] = name
	}
	if req.CategoryID != nil && *req.CategoryID != sub.CategoryID {
		if err := ensureCategory(db, *req.CategoryID); err != nil {
			RespondError(c, err, "查询类别失败")
			return
		}
		updates["category_id"] = *req.CategoryID
	}
	if len(updates) > 0 {
		if err := db.Model(&models.SubCategory{ID: sub.ID}).Updates(updates).Error; err != nil {
			RespondError(c, err, "更新子类别失败")
			return
		}
		// 重新加载到新的结构体，避免沿用旧的 Category
		var reloaded models.SubCategory
		if err := db.Preload("Category").First(&reloaded, sub.ID).Error; err != nil {
			RespondError(c, err, "查询子类别失败")
			return
		}
		sub = &reloaded
	}
	Success(c, sub)
}

// Delete 删除子类别；仍被交易引用时拒绝
func (h *SubCategoryHandler) Delete(c *gin.Context) {
	sub, err := h.find(c)
	if err != nil {
		RespondError(c, err, "查询子类别失败")
		return
	}

	err = database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Transaction{}).Where("sub_category_id = ?", sub.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return service.ValidationError("该子类别仍被交易引用，无法删除")
		}
		return tx.Delete(sub).Error
	})
	if err != nil {
		RespondError(c, err, "删除子类别失败")
		return
	}
	NoContent(c)
}

func (h *SubCategoryHandler) find(c *gin.Context) (*models.SubCategory, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	var sub models.SubCategory
	if err := database.DB.WithContext(c.Request.Context()).Preload("Category").First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.NotFoundError("子类别不存在")
		}
		return nil, err
	}
	return &sub, nil
}

func ensureCategory(db *gorm.DB, id uint) error {
	var cat models.Category
	if err := db.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return service.ValidationError("无效的类别")
		}
		return err
	}
	return nil
}
