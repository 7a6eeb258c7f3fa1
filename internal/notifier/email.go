package notifier

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPMailer отправляет письмо со ссылкой для смены пароля.
type SMTPMailer struct {
	from          string
	password      string
	host          string
	port          int
	resetLinkBase string
	linkTTL       time.Duration
}

func NewSMTPMailer(host string, port int, from string, password string, resetLinkBase string, linkTTL time.Duration) *SMTPMailer {
	return &SMTPMailer{
		from:          from,
		password:      password,
		host:          host,
		port:          port,
		resetLinkBase: resetLinkBase,
		linkTTL:       linkTTL,
	}
}

func (mailer *SMTPMailer) SendResetPasswordEmail(email string, resetToken string) error {
	resetLink := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(mailer.resetLinkBase, "/"), resetToken)

	message := mailer.buildMessage(email, "Сброс пароля", mailer.renderResetBody(resetLink))

	addr := fmt.Sprintf("%s:%d", mailer.host, mailer.port)
	auth := smtp.PlainAuth("", mailer.from, mailer.password, mailer.host)

	if err := smtp.SendMail(addr, auth, mailer.from, []string{email}, []byte(message)); err != nil {
		return fmt.Errorf("ошибка отправки письма: %w", err)
	}

	return nil
}

func (mailer *SMTPMailer) buildMessage(email string, subject string, body string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("From: %s\r\n", mailer.from))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", email))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(body)
	return builder.String()
}

func (mailer *SMTPMailer) renderResetBody(resetLink string) string {
	return fmt.Sprintf(`
        <h3>Сброс пароля</h3>
        <div>
            <a href="%s" target="_blank">Ссылка будет доступна в течение %d минут.</a>
        </div>
    `, resetLink, int(mailer.linkTTL.Minutes()))
}
