package ports

import (
	"context"

	"mindline/internal/domain"
)

// TranscriptionResult carries the canonical-language text of one utterance
// plus the language the caller actually spoke.
type TranscriptionResult struct {
	Text     string
	Language string
}

// Transcriber converts a wideband WAV utterance into canonical-language text.
// An empty Text with nil error means no speech was detected.
type Transcriber interface {
	TranscribeTranslate(ctx context.Context, wav []byte) (TranscriptionResult, error)
}

// Translator converts reply text into the caller's language. Implementations
// fall back to returning the input text on failure.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Synthesizer renders reply text as wideband WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, targetLang string) ([]byte, error)
}

// Responder is the stateful open-domain conversation collaborator. History is
// retained per session id, bounded, and dropped by ClearHistory.
type Responder interface {
	Respond(ctx context.Context, sessionID, text string) (string, error)
	ClearHistory(sessionID string)
}

// Notifier delivers best-effort notifications. Fire never blocks the caller
// and failures never propagate to the call path.
type Notifier interface {
	Fire(n domain.Notification)
}

// MediaSink is the outbound half of one telephony media stream. WriteMedia
// emits a single paced codec frame; CloseStream ends the stream after a
// terminal reply.
type MediaSink interface {
	WriteMedia(streamID string, frame []byte) error
	CloseStream() error
}

// ClipStore serves prerecorded telephony-rate audio clips by name.
type ClipStore interface {
	Clip(name string) ([]byte, bool)
}
