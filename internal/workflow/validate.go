package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ValidateQuestion rejects empty and oversized input. The messages are
// surfaced verbatim to callers.
func ValidateQuestion(question string, maxLen int) error {
	if strings.TrimSpace(question) == "" {
		return errors.New("Question cannot be empty.")
	}
	if len(question) > maxLen {
		return fmt.Errorf("Question exceeds max length of %d characters.", maxLen)
	}
	return nil
}
