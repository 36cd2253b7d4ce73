package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompt prints label to w and returns the next line read from r without
// its trailing newline. Input that ends without a newline is still returned.
func Prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PromptMissing fills every empty value by asking for it in order.
func PromptMissing(r *bufio.Reader, w io.Writer, fields ...PromptField) error {
	for _, f := range fields {
		if *f.Value != "" {
			continue
		}
		v, err := Prompt(r, w, f.Label)
		if err != nil {
			return fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(f.Label), ":"), err)
		}
		*f.Value = v
	}
	return nil
}

// PromptField binds a prompt label to the variable it fills.
type PromptField struct {
	Label string
	Value *string
}
