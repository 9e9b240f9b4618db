package register

import "unicode"

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidPassword reports whether the password meets the strength policy:
// minimum length plus at least one uppercase letter, one lowercase letter,
// one digit and one symbol.
func ValidPassword(password string) bool {
	if len(password) < MinPasswordLength {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
