package docsystem

import (
	"strings"
	"unicode"
)

// User is an entry in the mention directory.
type User struct {
	ID          string `json:"id" db:"id"`
	DisplayName string `json:"display_name" db:"display_name"`
	Email       string `json:"email" db:"email"`
}

// Handle is the token inserted after "@" when the user is mentioned:
// the local part of the email, or the display name without whitespace.
func (u User) Handle() string {
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, u.DisplayName)
}
