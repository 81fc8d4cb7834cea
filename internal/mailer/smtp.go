package mailer

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

type SMTP struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string

	dial func(d *gomail.Dialer, m ...*gomail.Message) error
}

func NewSMTP(server string, port int, user, password, from string) *SMTP {
	if from == "" {
		from = user
	}
	return &SMTP{
		Server:   server,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		dial:     (*gomail.Dialer).DialAndSend,
	}
}

func (s *SMTP) Send(address, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", address)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.Server, s.Port, s.User, s.Password)
	if err := s.dial(d, m); err != nil {
		log.Printf("warning: smtp delivery to %s failed: %v", address, err)
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

type NoEmail struct{}

func (NoEmail) Send(address, subject, body string) error {
	return ErrNotConfigured
}
