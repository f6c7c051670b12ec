package scheduler

import "fmt"

// InteractionFailure wraps a transport/session error from the opaque
// browser/session collaborator, the error class internal/scheduler retries
// with backoff before giving up.
type InteractionFailure struct {
	Account string
	Err     error
}

func (e *InteractionFailure) Error() string {
	return fmt.Sprintf("scheduler: interaction with %s failed: %v", e.Account, e.Err)
}

func (e *InteractionFailure) Unwrap() error { return e.Err }

// RetryExhausted is raised once the configured backoff attempts are used
// up without a successful fetch.
type RetryExhausted struct {
	Account  string
	Attempts int
	Summary  string
}

func (e *RetryExhausted) Error() string {
	return fmt.Sprintf("scheduler: %s: exhausted %d attempts: %s", e.Account, e.Attempts, e.Summary)
}

// SMSOTPTimeout is raised when no access code arrives in the mailbox
// before the poll deadline.
type SMSOTPTimeout struct {
	Account string
	Waited  string
}

func (e *SMSOTPTimeout) Error() string {
	return fmt.Sprintf("scheduler: %s: no SMS OTP received within %s", e.Account, e.Waited)
}

// summarizeRetryFailure reduces a chain of retry attempts to a one-line
// summary: the last error plus how many tries were made. Grounded on
// common/utils.py's traceback_summary, narrowed to just the final message
// since Go's %w error wrapping already gives call-site context without
// needing a full traceback walk.
func summarizeRetryFailure(lastErr error, attempts int) string {
	if lastErr == nil {
		return fmt.Sprintf("no error recorded after %d attempts", attempts)
	}
	return fmt.Sprintf("%s (after %d attempts)", lastErr.Error(), attempts)
}
