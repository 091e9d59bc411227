package domain

import (
	"time"
)

// Mode models the conversational flow state of one call. A session holds
// exactly one Mode at a time, so awaiting-email and nudged-appointment can
// never both be set.
type Mode string

const (
	ModeListening         Mode = "listening"
	ModeAwaitingEmail     Mode = "awaiting_email"
	ModeNudgedAppointment Mode = "nudged_appointment"
)

// Intent identifies which dialogue rule resolved a turn.
type Intent string

const (
	IntentCrisis                Intent = "crisis"
	IntentMoodOnly              Intent = "mood_only"
	IntentBreathing             Intent = "breathing"
	IntentAwaitingEmailResolved Intent = "awaiting_email_resolved"
	IntentNudgeConfirmed        Intent = "nudge_confirmed"
	IntentNudgeDeclined         Intent = "nudge_declined"
	IntentBookingRequested      Intent = "booking_requested"
	IntentSpontaneousEmail      Intent = "spontaneous_email"
	IntentFarewell              Intent = "farewell"
	IntentFreeform              Intent = "freeform"
)

// DefaultMood is the mood a session starts with and keeps until a mood
// keyword matches.
const DefaultMood = "neutral"

// CanonicalLanguage is the language the dialogue engine reasons in. Replies
// are translated out of it when the caller spoke something else.
const CanonicalLanguage = "en-IN"

// ClipBreathing names the guided breathing exercise asset.
const ClipBreathing = "breathing"

const (
	// MaxTopicLen bounds each recorded topic snippet.
	MaxTopicLen = 50
	// MaxTopics bounds the retained topic log.
	MaxTopics = 50
)

// Session is the per-call state record. The registry owns it; only the
// dialogue engine and lifecycle events mutate it.
type Session struct {
	ID           string
	StreamID     string
	CallerPhone  string
	Language     string
	Mood         string
	Email        string
	Topics       []string
	Crisis       bool
	Mode         Mode
	Interactions int
	CreatedAt    time.Time
}

// NewSession returns a fresh session in its initial state.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Mood:      DefaultMood,
		Mode:      ModeListening,
		CreatedAt: time.Now(),
	}
}

// AddTopic appends a truncated topic snippet, dropping the oldest entries
// once the retained bound is reached.
func (s *Session) AddTopic(topic string) {
	s.AddTopicTagged("", topic)
}

// AddTopicTagged appends a topic snippet under a tag prefix. The truncation
// bound applies to the snippet alone; the tag stays intact.
func (s *Session) AddTopicTagged(tag, topic string) {
	if len(topic) > MaxTopicLen {
		topic = topic[:MaxTopicLen] + "..."
	}
	s.Topics = append(s.Topics, tag+topic)
	if len(s.Topics) > MaxTopics {
		s.Topics = s.Topics[len(s.Topics)-MaxTopics:]
	}
}

// MarkCrisis sets the sticky crisis flag. It never reverts.
func (s *Session) MarkCrisis() {
	s.Crisis = true
}

// TurnOutput is what one dialogue turn produces for playback.
type TurnOutput struct {
	Intent        Intent
	Reply         string
	Terminal      bool
	BreathingClip bool
}

// NotificationKind selects one of the best-effort outbound notifications.
type NotificationKind string

const (
	NotifyCrisisAlert    NotificationKind = "crisis_alert"
	NotifyBookingLink    NotificationKind = "booking_link"
	NotifySessionSummary NotificationKind = "session_summary"
)

// Notification is the payload handed to the notifier queue.
type Notification struct {
	Kind        NotificationKind
	CallerPhone string
	Email       string
	Detail      string
	Topics      []string
	Mood        string
}

// EventKind identifies a normalized inbound stream event.
type EventKind string

const (
	EventStart EventKind = "start"
	EventMedia EventKind = "media"
	EventStop  EventKind = "stop"
	EventMark  EventKind = "mark"
)

// StreamEvent is one normalized record from the telephony gateway.
type StreamEvent struct {
	Kind        EventKind
	StreamID    string
	CallerPhone string
	Payload     []byte
	TimestampMs int64
}
