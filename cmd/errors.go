package cmd

import "fmt"

// AuthRequiredError indicates the command needs a signed-in session.
type AuthRequiredError struct {
	Reason string
}

func (e *AuthRequiredError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("authentication required: %s. Run 'testagent auth login' to sign in", e.Reason)
	}
	return "authentication required. Run 'testagent auth login' to sign in"
}

// UsageError is invalid command input detected before any request is sent.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}
