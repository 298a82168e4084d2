package service

import (
	"fmt"
	"html"
	"strings"

	"wallet/config"

	"gopkg.in/gomail.v2"
)

// Mailer 发送邮件的抽象，便于测试时替换
type Mailer interface {
	SendPasswordResetEmail(toEmail, username, resetLink string) error
	SendBudgetAlertEmail(toEmail, username string, alerts []string) error
}

// EmailService 基于 SMTP 的邮件服务
type EmailService struct {
	cfg  *config.EmailConfig
	send func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	s.send = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		return d.DialAndSend(m)
	}
	return s
}

// SendPasswordResetEmail 发送密码重置链接
func (s *EmailService) SendPasswordResetEmail(toEmail, username, resetLink string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 WALLET_EMAIL_ENABLED=true")
	}
	return s.sendEmail(toEmail, "【Wallet】密码重置", s.resetEmailBody(username, resetLink))
}

// SendBudgetAlertEmail 发送预算超支提醒
func (s *EmailService) SendBudgetAlertEmail(toEmail, username string, alerts []string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用")
	}
	if len(alerts) == 0 {
		return nil
	}
	return s.sendEmail(toEmail, "【Wallet】预算超支提醒", s.alertEmailBody(username, alerts))
}

func (s *EmailService) resetEmailBody(username, resetLink string) string {
	link := html.EscapeString(resetLink)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; background: #f5f5f5; padding: 20px;">
  <div style="max-width: 560px; margin: 0 auto; background: #fff; border-radius: 8px; padding: 32px;">
    <h2 style="color: #0f766e;">Wallet</h2>
    <p>%s，您好：</p>
    <p>我们收到了您的密码重置请求，请点击下方链接设置新密码：</p>
    <p><a href="%s" style="color: #0f766e;">重置密码</a></p>
    <p style="color: #92400e;">链接有效期为 <strong>30 分钟</strong>。如果不是您本人操作，请忽略此邮件。</p>
    <p style="font-size: 12px; word-break: break-all; color: #666;">%s</p>
  </div>
</body>
</html>
`, html.EscapeString(username), link, link)
}

func (s *EmailService) alertEmailBody(username string, alerts []string) string {
	var items strings.Builder
	for _, a := range alerts {
		items.WriteString("<li>" + html.EscapeString(a) + "</li>")
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
  <h2 style="color: #b91c1c;">预算超支提醒</h2>
  <p>%s，您好：以下预算已超出限额</p>
  <ul>%s</ul>
</body>
</html>
`, html.EscapeString(username), items.String())
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}
