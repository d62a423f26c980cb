package util

import (
	"regexp"
	"strings"
)

var nonPhoneChars = regexp.MustCompile(`[^\d\+]+`)

// NormalizePhone strips formatting from a phone number and converts the
// international "00" prefix to "+". Numbers are otherwise left as typed.
func NormalizePhone(raw string) string {
	s := nonPhoneChars.ReplaceAllString(strings.TrimSpace(raw), "")

	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}

	return s
}
