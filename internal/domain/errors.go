package domain

import "errors"

// Error taxonomy for the session engine. Callers branch on these with
// errors.Is; wrapped context travels alongside via fmt.Errorf %w.
var (
	// ErrFormat marks malformed audio. The current turn is dropped; the
	// session continues.
	ErrFormat = errors.New("malformed audio format")

	// ErrUpstream marks a remote collaborator failure or timeout.
	ErrUpstream = errors.New("upstream collaborator error")

	// ErrNoSpeech marks a benign empty transcription.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrLateEvent marks an event for an already-torn-down session.
	ErrLateEvent = errors.New("event for closed session")
)
