package chat

import "regexp"

var reStripName = regexp.MustCompile(`[^\w.-]`)

const maxNameLength = 16

// SanitizeName returns a name with only allowed characters and a reasonable
// length.
func SanitizeName(s string) string {
	s = reStripName.ReplaceAllString(s, "")
	if len(s) > maxNameLength {
		s = s[:maxNameLength]
	}
	return s
}
