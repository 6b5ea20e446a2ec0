package domain

import "net/mail"

// ValidEmail accepts a bare address such as "ada@example.com". Display-name
// forms are rejected.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
