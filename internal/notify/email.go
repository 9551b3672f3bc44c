package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"jobscout/internal/config"
	"jobscout/internal/model"
)

// EmailMessage 表示一封邮件。
type EmailMessage struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// EmailSender 抽象发送接口，便于测试替换。
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPClient 封装 SMTP 发送。
type SMTPClient struct {
	addr string
	auth smtp.Auth
}

func NewSMTPClient(cfg config.EmailConfig) *SMTPClient {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPClient{addr: addr, auth: auth}
}

func (c *SMTPClient) Send(ctx context.Context, msg EmailMessage) error {
	data := buildEmailData(msg)
	return smtp.SendMail(c.addr, c.auth, msg.From, msg.To, []byte(data))
}

// EmailNotifier 负责将新增职位发送邮件。
type EmailNotifier struct {
	cfg    config.EmailConfig
	sender EmailSender
}

// NewEmailNotifier 创建 EmailNotifier，sender 为空时使用真实 SMTP 客户端。
func NewEmailNotifier(cfg config.EmailConfig, sender EmailSender) *EmailNotifier {
	if sender == nil {
		sender = NewSMTPClient(cfg)
	}
	if cfg.Subject == "" {
		cfg.Subject = "New job postings"
	}
	return &EmailNotifier{cfg: cfg, sender: sender}
}

// Notify 将新增职位发送邮件，若列表为空则跳过。
func (n EmailNotifier) Notify(ctx context.Context, jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	msg := EmailMessage{
		From:    n.cfg.From,
		To:      n.cfg.To,
		Subject: n.cfg.Subject,
		Body:    buildBody(jobs),
	}
	return n.sender.Send(ctx, msg)
}

func buildBody(jobs []model.Job) string {
	var b strings.Builder
	b.WriteString("New job postings:\n")
	for _, j := range jobs {
		b.WriteString(fmt.Sprintf("- %s @ %s (%s) %s\n", j.Title, j.Company, j.Source, j.URL))
	}
	return b.String()
}

func buildEmailData(msg EmailMessage) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ",")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
