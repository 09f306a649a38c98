// Package email holds the small email helpers used by validation and logging.
package email

import (
	"net/mail"
	"strings"
)

// Valid reports whether addr is a bare RFC 5322 address (no display name).
func Valid(addr string) bool {
	if addr == "" || strings.ContainsAny(addr, " <>") {
		return false
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return false
	}
	at := strings.LastIndexByte(parsed.Address, '@')
	return parsed.Address == addr && at > 0 && strings.Contains(addr[at:], ".")
}

// Normalize lowercases and trims an address.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Mask keeps the first rune of the local part and the domain, for logs.
//
//	Mask("maria.silva@example.org") // "m***@example.org"
func Mask(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 {
		if addr == "" {
			return ""
		}
		return "***"
	}
	local := []rune(addr[:at])
	return string(local[0]) + "***" + addr[at:]
}
