package mailer

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/erciktiburak/school-attendance-api/config"
)

// sendFunc 与 smtp.SendMail 同签名，测试中替换
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpMailer struct {
	addr     string
	auth     smtp.Auth
	from     mail.Address
	sendMail sendFunc
}

// NewSMTP 创建 SMTP 发送通道，用户名为空时不做认证
func NewSMTP(cfg *config.MailConfig) Mailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &smtpMailer{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		auth:     auth,
		from:     mail.Address{Name: cfg.SenderName, Address: cfg.SenderEmail},
		sendMail: smtp.SendMail,
	}
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	to := mail.Address{Name: msg.ToName, Address: msg.To}
	if err := m.sendMail(m.addr, m.auth, m.from.Address, []string{msg.To}, buildMIME(m.from, to, msg)); err != nil {
		return fmt.Errorf("SMTP 发送失败: %w", err)
	}
	return nil
}

// buildMIME 组装单段 text/html 报文，主题按 RFC 2047 编码
func buildMIME(from, to mail.Address, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from.String() + "\r\n")
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
