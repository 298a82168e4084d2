package service

import (
	"errors"
	"fmt"
)

// 错误分类，api 层通过 errors.Is 映射为 HTTP 状态码
var (
	ErrValidation        = errors.New("参数校验失败")
	ErrNotFound          = errors.New("记录不存在")
	ErrInsufficientFunds = errors.New("余额不足")
	ErrUnauthorized      = errors.New("未授权")
)

// Error 携带可直接返回给客户端的提示信息
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// ValidationError 输入缺失或格式错误
func ValidationError(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError 实体不存在
func NotFoundError(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// InsufficientFundsError 支出金额超过账户余额
func InsufficientFundsError(format string, args ...any) error {
	return &Error{Kind: ErrInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}
