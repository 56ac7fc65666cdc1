// Package session owns the connection to the remote AI. A session is created
// once, reused for every request and closed exactly once.
package session

import "context"

// Asker sends one prompt and returns the model's text reply.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
	Close() error
}

// SetupError means the session could not be brought up. It is fatal.
type SetupError struct {
	Backend string
	Err     error
}

func (e *SetupError) Error() string {
	return "failed to start " + e.Backend + " session: " + e.Err.Error()
}

func (e *SetupError) Unwrap() error { return e.Err }

// RemoteError is a failure of a single Ask. The session stays usable.
type RemoteError struct {
	Backend string
	Err     error
}

func (e *RemoteError) Error() string {
	return e.Backend + " request failed: " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }
