package register

import "strings"

// deriveUsername picks the account's username: the explicit username if
// supplied, else the joined name parts, else the email local part.
func deriveUsername(username, firstName, lastName, email string) string {
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{strings.TrimSpace(firstName), strings.TrimSpace(lastName)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
