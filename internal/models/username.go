package models

import "strings"

// MaxUsernameLen bounds usernames, which are also used as file names.
const MaxUsernameLen = 64

// ValidUsername reports whether name can be registered and safely used as
// the base name of a file.
func ValidUsername(name string) bool {
	if name == "" || len(name) > MaxUsernameLen {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
