// Package mailer 提供邮件发送通道：SMTP、SendGrid 以及未配置时的空实现。
package mailer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/erciktiburak/school-attendance-api/config"
)

// ErrNoRecipient 收件人为空
var ErrNoRecipient = errors.New("mailer: recipient address is empty")

// Message 待发送的 HTML 邮件
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Mailer 邮件发送接口
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New 按配置选择发送通道；配置不完整时返回只记录日志的空实现
func New(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	if !cfg.Configured() {
		logger.Warn("邮件未配置，发送将被跳过")
		return NewNoop(logger)
	}

	switch cfg.Provider {
	case "sendgrid":
		logger.Info("邮件通道: SendGrid", zap.String("sender", cfg.SenderEmail))
		return NewSendGrid(cfg.SendGridKey, cfg.SenderName, cfg.SenderEmail)
	default:
		logger.Info("邮件通道: SMTP", zap.String("host", cfg.SMTPHost), zap.Int("port", cfg.SMTPPort))
		return NewSMTP(cfg)
	}
}
