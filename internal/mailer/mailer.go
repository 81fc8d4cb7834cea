package mailer

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrNotConfigured is returned by NoEmail so callers can tell a disabled
// mailer apart from a delivery failure.
var ErrNotConfigured = errors.New("email delivery is not configured")

type Sender interface {
	Send(address, subject, body string) error
}

// NormalizeAddress validates a single recipient and returns its bare address.
func NormalizeAddress(address string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(address))
	if err != nil {
		return "", err
	}
	return strings.ToLower(parsed.Address), nil
}
