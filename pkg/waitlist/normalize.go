package waitlist

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// E.164: leading +, country code 1-9, up to 15 digits total.
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips spaces, dashes and parentheses so user-formatted
// numbers like "+1 (555) 123-4567" compare equal to "+15551234567".
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// ValidEmail reports whether email looks like an address after normalization.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone reports whether phone is E.164 after normalization.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// DomainOf extracts the normalized domain from an email address. Returns ""
// when no domain can be extracted.
func DomainOf(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" || !strings.Contains(domain, ".") {
		return ""
	}
	return domain
}
