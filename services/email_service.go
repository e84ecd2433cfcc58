package services

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"

	"github.com/agrimarket/agrimarket_backend/models"
)

// Mailer sends transactional emails.
type Mailer interface {
	Send(to, subject, body string) error
}

// EmailService delivers mail over SMTP.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService reads SMTP_* variables. Without SMTP_HOST mail is only
// logged.
func NewEmailService() Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("Warning: SMTP_HOST not set, emails will be logged only")
		return logMailer{}
	}
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}
	from := os.Getenv("FROM_EMAIL")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}
	return &EmailService{
		dialer: gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASS")),
		from:   from,
	}
}

func (s *EmailService) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		return err
	}
	return nil
}

type logMailer struct{}

func (logMailer) Send(to, subject, _ string) error {
	log.Printf("Email to %s skipped (SMTP disabled): %s", to, subject)
	return nil
}

// OTPEmail renders the subject and body of a verification or reset code.
func OTPEmail(purpose, code string) (string, string) {
	if purpose == models.OTPPurposeReset {
		return "Password Reset Code",
			fmt.Sprintf("Your password reset code is: %s\nThis code will expire in 10 minutes.", code)
	}
	return "Verify your Agrimarket account",
		fmt.Sprintf("Your verification code is: %s\nThis code will expire in 10 minutes.", code)
}
