package ai

import (
	"regexp"
	"strings"
)

const (
	reasoningOpen  = "<think>"
	reasoningClose = "</think>"
)

var reasoningSpan = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripReasoning removes the model's private deliberation, every
// <think>...</think> span, from s. An opening tag that is never closed
// hides everything after it.
func StripReasoning(s string) string {
	s = reasoningSpan.ReplaceAllString(s, "")
	if i := strings.Index(s, reasoningOpen); i >= 0 {
		s = s[:i]
	}
	// A stray closing tag means the opening one was cut off upstream.
	if i := strings.LastIndex(s, reasoningClose); i >= 0 {
		s = s[i+len(reasoningClose):]
	}
	return strings.TrimSpace(s)
}
