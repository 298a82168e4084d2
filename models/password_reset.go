package models

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PasswordResetTTL 重置令牌有效期
const PasswordResetTTL = 30 * time.Minute

// PasswordReset 密码重置令牌模型
type PasswordReset struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Token     string         `json:"-" gorm:"uniqueIndex;size:64;not null"`
	Email     string         `json:"email" gorm:"size:100;not null"`
	ExpiresAt time.Time      `json:"expires_at" gorm:"not null"`
	Used      bool           `json:"used" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (PasswordReset) TableName() string {
	return "password_resets"
}

// NewPasswordReset 为用户生成一条新的重置令牌记录
func NewPasswordReset(user *User, now time.Time) (*PasswordReset, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	return &PasswordReset{
		UserID:    user.ID,
		Token:     token,
		Email:     user.Email,
		ExpiresAt: now.Add(PasswordResetTTL),
	}, nil
}

// GenerateToken 生成 32 字节随机令牌（hex 编码）
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ResetLink 拼接前端重置密码链接
func (p *PasswordReset) ResetLink(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/reset-password/" + p.Token
}

// IsExpired 检查令牌是否过期
func (p *PasswordReset) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

// IsValid 检查令牌是否有效
func (p *PasswordReset) IsValid() bool {
	return !p.Used && !p.IsExpired()
}
