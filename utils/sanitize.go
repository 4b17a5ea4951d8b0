package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips HTML from user-editable profile text to prevent stored XSS.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
