package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"wallet/config"
	"wallet/database"
	"wallet/middleware"
	"wallet/models"
	"wallet/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg    *config.Config
	mailer service.Mailer
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		mailer: service.NewEmailService(&cfg.Email),
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=50"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6,max=50"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// LoginRequest 登录请求，email 字段也可填用户名
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest 忘记密码请求
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfileRequest 修改个人信息请求，空字段不修改
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=6,max=50"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// AuthPayload 注册/登录成功返回的数据
type AuthPayload struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register 用户注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authFail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if req.Password != req.ConfirmPassword {
		authFail(c, http.StatusBadRequest, "两次输入的密码不一致")
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		authFail(c, http.StatusBadRequest, "该邮箱已被注册")
		return
	}
	if err := db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		authFail(c, http.StatusBadRequest, "用户名已存在")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		authFail(c, http.StatusInternalServerError, "密码加密失败")
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := db.Create(&user).Error; err != nil {
		authFail(c, http.StatusInternalServerError, SafeErrorMessage(err, "创建用户失败"))
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		authFail(c, http.StatusInternalServerError, "生成 token 失败")
		return
	}

	authOK(c, http.StatusCreated, "注册成功", AuthPayload{Token: token, User: user})
}

// Login 用户登录（支持邮箱或用户名）
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authFail(c, http.StatusBadRequest, "请输入邮箱和密码")
		return
	}

	var user models.User
	if err := database.DB.WithContext(c.Request.Context()).Where("email = ? OR username = ?", req.Email, req.Email).First(&user).Error; err != nil {
		authFail(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		authFail(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		authFail(c, http.StatusInternalServerError, "生成 token 失败")
		return
	}

	authOK(c, http.StatusOK, "登录成功", AuthPayload{Token: token, User: user})
}

// ForgotPassword 发送密码重置链接
// 无论邮箱是否注册都返回 200，不泄露账号是否存在
// POST /api/v1/auth/forgotPassword
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authFail(c, http.StatusBadRequest, "请输入有效的邮箱地址")
		return
	}

	const message = "如果该邮箱已注册，您将收到密码重置邮件"

	db := database.DB.WithContext(c.Request.Context())
	var user models.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("查询用户失败: %v", err)
		}
		authOK(c, http.StatusOK, message, nil)
		return
	}

	reset, err := models.NewPasswordReset(&user, time.Now())
	if err != nil {
		authFail(c, http.StatusInternalServerError, "生成重置令牌失败")
		return
	}

	// 旧的未使用令牌作废
	if err := db.Model(&models.PasswordReset{}).
		Where("user_id = ? AND used = ?", user.ID, false).
		Update("used", true).Error; err != nil {
		log.Printf("作废旧重置令牌失败 (user %d): %v", user.ID, err)
	}

	if err := db.Create(reset).Error; err != nil {
		authFail(c, http.StatusInternalServerError, "创建重置令牌失败")
		return
	}

	link := reset.ResetLink(h.cfg.Server.BaseURL)
	if err := h.mailer.SendPasswordResetEmail(user.Email, user.Username, link); err != nil {
		log.Printf("警告: 密码重置邮件发送失败 (user %d): %v", user.ID, err)
		if h.cfg.Server.Mode != gin.ReleaseMode {
			log.Printf("密码重置链接: %s", link)
		}
	}

	authOK(c, http.StatusOK, message, nil)
}

// ResetPassword 使用令牌重置密码
// POST /api/v1/auth/resetPassword
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authFail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if req.Password != req.ConfirmPassword {
		authFail(c, http.StatusBadRequest, "两次输入的密码不一致")
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	var reset models.PasswordReset
	if err := db.Where("token = ?", strings.TrimSpace(req.Token)).First(&reset).Error; err != nil {
		authFail(c, http.StatusBadRequest, "无效或已过期的重置链接")
		return
	}
	if !reset.IsValid() {
		authFail(c, http.StatusBadRequest, "无效或已过期的重置链接")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		authFail(c, http.StatusInternalServerError, "密码加密失败")
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			Update("password", string(hashed)).Error; err != nil {
			return err
		}
		return tx.Model(&models.PasswordReset{}).
			Where("user_id = ? AND used = ?", reset.UserID, false).
			Update("used", true).Error
	})
	if err != nil {
		authFail(c, http.StatusInternalServerError, "更新密码失败")
		return
	}

	authOK(c, http.StatusOK, "密码重置成功，请使用新密码登录", nil)
}

// GetProfile 获取当前用户信息
// GET /api/v1/auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		authFail(c, http.StatusNotFound, "用户不存在")
		return
	}

	authOK(c, http.StatusOK, "success", user)
}

// UpdateProfile 修改当前用户的用户名或邮箱
// PUT /api/v1/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		authFail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	db := database.DB.WithContext(c.Request.Context())
	var user models.User
	if err := db.First(&user, middleware.GetCurrentUserID(c)).Error; err != nil {
		authFail(c, http.StatusNotFound, "用户不存在")
		return
	}

	updates := map[string]interface{}{}
	var existing models.User
	if username := strings.TrimSpace(req.Username); username != "" && username != user.Username {
		if err := db.Where("username = ? AND id <> ?", username, user.ID).First(&existing).Error; err == nil {
			authFail(c, http.StatusBadRequest, "用户名已存在")
			return
		}
		updates["username"] = username
	}
	if req.Email != "" && req.Email != user.Email {
		if err := db.Where("email = ? AND id <> ?", req.Email, user.ID).First(&existing).Error; err == nil {
			authFail(c, http.StatusBadRequest, "该邮箱已被注册")
			return
		}
		updates["email"] = req.Email
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			authFail(c, http.StatusInternalServerError, SafeErrorMessage(err, "更新用户信息失败"))
			return
		}
		if err := db.First(&user, user.ID).Error; err != nil {
			authFail(c, http.StatusInternalServerError, "查询用户失败")
			return
		}
	}
	authOK(c, http.StatusOK, "更新成功", user)
}
