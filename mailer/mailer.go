// Package mailer sends the password reset email.
package mailer

import (
	_ "embed"
	"strings"
	"time"

	"solarcatalog/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/reset_password.html
var resetTemplate string

type Sender interface {
	SendReset(email, token string) error
}

type SMTPSender struct {
	cfg    config.SMTPConfig
	webURL string
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg config.SMTPConfig, webURL string) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		webURL: strings.TrimRight(webURL, "/"),
		dialer: gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password),
	}
}

// ResetURL is the page of the admin site the email links to.
func ResetURL(webURL, token string) string {
	return strings.TrimRight(webURL, "/") + "/admin/login/reset-password?token=" + token
}

func (s *SMTPSender) Body(token string) string {
	return strings.ReplaceAll(resetTemplate, "%URL%", ResetURL(s.webURL, token))
}

func (s *SMTPSender) Message(email, token string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", s.cfg.ResetSubject)
	m.SetBody("text/html", s.Body(token))
	return m
}

func (s *SMTPSender) SendReset(email, token string) error {
	t := time.Now()
	err := s.dialer.DialAndSend(s.Message(email, token))
	if err != nil {
		zap.L().Error("mailer: send reset failed", zap.String("email", email), zap.Error(err))
		return err
	}

	zap.L().Info("mailer: reset sent", zap.String("email", email), zap.Duration("took", time.Since(t)))
	return nil
}
