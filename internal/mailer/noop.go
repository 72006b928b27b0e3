package mailer

import (
	"context"

	"go.uber.org/zap"
)

type noopMailer struct {
	logger *zap.Logger
}

// NewNoop 未配置邮件时使用：不发送，仅记录告警
func NewNoop(logger *zap.Logger) Mailer {
	return &noopMailer{logger: logger}
}

func (m *noopMailer) Send(_ context.Context, msg Message) error {
	m.logger.Warn("邮件未配置，跳过发送",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
