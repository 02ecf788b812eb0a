package users

import (
	"log"
	"os"
)

// Mailer delivers outbound mail. Delivery mechanics live outside this
// service; implementations may queue, send, or log.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes mail to the process log. It is the default backend and
// the one used in tests.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("mail from=%s to=%s subject=%q body=%q", FromEmail(), to, subject, body)
	return nil
}

var mailer Mailer = LogMailer{}

// SetMailer swaps the outbound-mail backend
func SetMailer(m Mailer) {
	mailer = m
}

// FromEmail is the sender address used on confirmation mail
func FromEmail() string {
	if from := os.Getenv("FROM_EMAIL"); from != "" {
		return from
	}
	return "noreply@yamdb.local"
}
