package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, 64, "hex of 32 bytes = 64 chars")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), token)

	other, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestNewPasswordReset(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	user := &User{ID: 7, Email: "a@example.com"}

	p, err := NewPasswordReset(user, now)
	require.NoError(t, err)
	assert.Equal(t, uint(7), p.UserID)
	assert.Equal(t, "a@example.com", p.Email)
	assert.Equal(t, now.Add(30*time.Minute), p.ExpiresAt)
	assert.False(t, p.Used)
}

func TestPasswordReset_ResetLink(t *testing.T) {
	p := &PasswordReset{Token: "abc"}
	assert.Equal(t, "https://wallet.example.com/reset-password/abc", p.ResetLink("https://wallet.example.com/"))
	assert.Equal(t, "http://localhost:5173/reset-password/abc", p.ResetLink("http://localhost:5173"))
}

func TestPasswordReset_IsValid(t *testing.T) {
	now := time.Now()

	// 有效
	p := &PasswordReset{Used: false, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, p.IsValid())
	assert.False(t, p.IsExpired())

	// 无效：已使用
	p2 := &PasswordReset{Used: true, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, p2.IsValid())

	// 无效：已过期
	p3 := &PasswordReset{Used: false, ExpiresAt: now.Add(-time.Hour)}
	assert.True(t, p3.IsExpired())
	assert.False(t, p3.IsValid())
}
