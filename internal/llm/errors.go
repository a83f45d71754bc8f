package llm

import (
	"errors"
	"fmt"
)

// ErrBackendUnreachable covers transport failures and timeouts, connect or
// read alike. The mission stays retryable on the next call.
var ErrBackendUnreachable = errors.New("inference backend unreachable")

// ErrBadPayload means the backend answered but its envelope could not be
// decoded or lacks the expected text field.
var ErrBadPayload = errors.New("inference backend returned an unexpected payload")

// BadStatusError is a non-success HTTP status from the backend.
type BadStatusError struct {
	Code int
	Body string
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("inference backend returned HTTP %d: %s", e.Code, e.Body)
}

const maxDiagnosticBody = 512

func truncateBody(b string) string {
	if len(b) <= maxDiagnosticBody {
		return b
	}
	return b[:maxDiagnosticBody] + "..."
}
