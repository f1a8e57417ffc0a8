package magiclink

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPMailer 透過 SMTP 伺服器寄送登入連結
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPMailer 建立新的 SMTPMailer 實例
func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{
		Host: host,
		Port: port,
		User: user,
		Pass: pass,
		From: from,
	}
}

// SendLoginLink 實作 IMailer 介面
func (m *SMTPMailer) SendLoginLink(_ context.Context, email, link string) error {
	const op = "SMTPMailer.SendLoginLink"
	body := strings.Join([]string{
		fmt.Sprintf("From: %s", m.From),
		fmt.Sprintf("To: %s", email),
		"Subject: Your login link",
		"",
		"Click the link below to sign in:",
		link,
		"",
		"The link expires in 15 minutes. If you didn't request it, ignore this email.",
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)
	if err := smtp.SendMail(addr, auth, m.From, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("[%s] Fail to send mail, err=%w", op, err)
	}
	return nil
}

// LogMailer 把登入連結寫進日誌而不是真的寄出，開發環境用
type LogMailer struct {
	Logger *slog.Logger
}

// SendLoginLink 實作 IMailer 介面
func (m *LogMailer) SendLoginLink(_ context.Context, email, link string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("login link issued",
		slog.String("caller", "LogMailer.SendLoginLink"),
		slog.String("email", email),
		slog.String("link", link),
	)
	return nil
}
