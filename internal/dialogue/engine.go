// Package dialogue drives the per-call conversation: an ordered list of
// intent rules evaluated in fixed priority order, stopping at the first
// match. The rule table is the single source of truth for conversational
// mode transitions.
package dialogue

import (
	"context"

	"go.uber.org/zap"

	"mindline/internal/domain"
	"mindline/internal/ports"
)

// rule pairs a predicate with its handler. Rules run in declaration order;
// the first applicable rule resolves the turn.
type rule struct {
	name    string
	applies func(s *domain.Session, text string) bool
	handle  func(ctx context.Context, s *domain.Session, text string) domain.TurnOutput
}

// Engine evaluates finalized utterances against the session state.
type Engine struct {
	responder ports.Responder
	notifier  ports.Notifier
	log       *zap.Logger

	rules []rule
}

// NewEngine builds the priority-ordered rule table.
func NewEngine(responder ports.Responder, notifier ports.Notifier, log *zap.Logger) *Engine {
	e := &Engine{responder: responder, notifier: notifier, log: log}
	e.rules = []rule{
		{
			name:    "breathing",
			applies: func(_ *domain.Session, text string) bool { return detectBreathingRequest(text) },
			handle:  e.handleBreathing,
		},
		{
			name:    "awaiting_email",
			applies: func(s *domain.Session, _ string) bool { return s.Mode == domain.ModeAwaitingEmail },
			handle:  e.handleAwaitingEmail,
		},
		{
			name:    "nudged_appointment",
			applies: func(s *domain.Session, _ string) bool { return s.Mode == domain.ModeNudgedAppointment },
			handle:  e.handleNudged,
		},
		{
			name:    "booking_request",
			applies: func(_ *domain.Session, text string) bool { return detectBookingRequest(text) },
			handle:  e.handleBooking,
		},
		{
			name:    "spontaneous_email",
			applies: func(_ *domain.Session, text string) bool { return hasEmailHeuristic(text) },
			handle:  e.handleSpontaneousEmail,
		},
		{
			name:    "farewell",
			applies: func(_ *domain.Session, text string) bool { return detectFarewell(text) },
			handle:  e.handleFarewell,
		},
		{
			name:    "freeform",
			applies: func(_ *domain.Session, _ string) bool { return true },
			handle:  e.handleFreeform,
		},
	}
	return e
}

// Evaluate resolves one finalized utterance into a turn output, mutating the
// session. Crisis detection preempts everything; mood detection never
// resolves a turn by itself.
func (e *Engine) Evaluate(ctx context.Context, s *domain.Session, text string) domain.TurnOutput {
	if detectCrisis(text) {
		return e.handleCrisis(s, text)
	}

	if mood := detectMood(text); mood != "" {
		s.Mood = mood
		e.log.Debug("mood detected", zap.String("session", s.ID), zap.String("mood", mood))
	}
	s.Interactions++

	for _, r := range e.rules {
		if r.applies(s, text) {
			return r.handle(ctx, s, text)
		}
	}

	// Unreachable: the freeform rule always applies.
	return e.handleFreeform(ctx, s, text)
}

func (e *Engine) handleCrisis(s *domain.Session, text string) domain.TurnOutput {
	if !s.Crisis {
		s.MarkCrisis()
		s.AddTopicTagged("Crisis: ", text)
		e.notifier.Fire(domain.Notification{
			Kind:        domain.NotifyCrisisAlert,
			CallerPhone: s.CallerPhone,
			Detail:      text,
		})
		e.log.Warn("crisis detected",
			zap.String("session", s.ID),
			zap.String("caller", s.CallerPhone))
	}
	// The flag is sticky; repeated crisis language gets the same scripted
	// reply without re-alerting.
	return domain.TurnOutput{Intent: domain.IntentCrisis, Reply: replyCrisis}
}

func (e *Engine) handleBreathing(_ context.Context, s *domain.Session, _ string) domain.TurnOutput {
	s.AddTopic("Breathing exercise")
	return domain.TurnOutput{
		Intent:        domain.IntentBreathing,
		Reply:         replyBreathingIntro,
		BreathingClip: true,
	}
}

func (e *Engine) handleAwaitingEmail(_ context.Context, s *domain.Session, text string) domain.TurnOutput {
	email := extractEmail(text)
	if email == "" {
		// Mode stays set; the caller is re-prompted.
		return domain.TurnOutput{Intent: domain.IntentAwaitingEmailResolved, Reply: replyEmailRetry}
	}

	s.Email = email
	s.Mode = domain.ModeListening
	s.AddTopic("Appointment booking completed")
	e.notifier.Fire(domain.Notification{
		Kind:        domain.NotifyBookingLink,
		CallerPhone: s.CallerPhone,
		Email:       email,
	})
	return domain.TurnOutput{
		Intent: domain.IntentAwaitingEmailResolved,
		Reply:  replyEmailConfirmed(spellOutEmail(email)),
	}
}

func (e *Engine) handleNudged(ctx context.Context, s *domain.Session, text string) domain.TurnOutput {
	switch {
	case detectConfirmation(text):
		s.Mode = domain.ModeAwaitingEmail
		s.AddTopic("Appointment interest confirmed")
		return domain.TurnOutput{Intent: domain.IntentNudgeConfirmed, Reply: replyNudgeConfirmed}
	case detectDecline(text):
		s.Mode = domain.ModeListening
		return domain.TurnOutput{Intent: domain.IntentNudgeDeclined, Reply: replyNudgeDeclined}
	default:
		// Unclear answer: clear the nudge and let the open-domain
		// responder carry the conversation.
		s.Mode = domain.ModeListening
		return e.handleFreeform(ctx, s, text)
	}
}

func (e *Engine) handleBooking(_ context.Context, s *domain.Session, _ string) domain.TurnOutput {
	s.AddTopic("Appointment booking")
	if s.Email != "" {
		e.notifier.Fire(domain.Notification{
			Kind:        domain.NotifyBookingLink,
			CallerPhone: s.CallerPhone,
			Email:       s.Email,
		})
		return domain.TurnOutput{
			Intent: domain.IntentBookingRequested,
			Reply:  replyBookingWithKnownEmail(s.Email),
		}
	}
	s.Mode = domain.ModeAwaitingEmail
	return domain.TurnOutput{Intent: domain.IntentBookingRequested, Reply: replyAskEmail}
}

func (e *Engine) handleSpontaneousEmail(ctx context.Context, s *domain.Session, text string) domain.TurnOutput {
	email := extractEmail(text)
	if email == "" {
		// The heuristic misfired on ordinary conversation; hand the
		// utterance to the responder rather than the farewell check.
		return e.handleFreeform(ctx, s, text)
	}
	s.Email = email
	s.AddTopic("Email collected - booking link sent")
	e.notifier.Fire(domain.Notification{
		Kind:        domain.NotifyBookingLink,
		CallerPhone: s.CallerPhone,
		Email:       email,
	})
	return domain.TurnOutput{
		Intent: domain.IntentSpontaneousEmail,
		Reply:  replySpontaneousEmail(spellOutEmail(email)),
	}
}

func (e *Engine) handleFarewell(_ context.Context, s *domain.Session, _ string) domain.TurnOutput {
	if s.Email != "" {
		e.notifier.Fire(domain.Notification{
			Kind:        domain.NotifySessionSummary,
			CallerPhone: s.CallerPhone,
			Email:       s.Email,
			Topics:      append([]string(nil), s.Topics...),
			Mood:        s.Mood,
		})
	}
	return domain.TurnOutput{Intent: domain.IntentFarewell, Reply: replyFarewell, Terminal: true}
}

func (e *Engine) handleFreeform(ctx context.Context, s *domain.Session, text string) domain.TurnOutput {
	if len(text) > 10 {
		s.AddTopic(text)
	}

	reply, err := e.responder.Respond(ctx, s.ID, text)
	if err != nil {
		e.log.Warn("open-domain responder failed",
			zap.String("session", s.ID), zap.Error(err))
		return domain.TurnOutput{Intent: domain.IntentFreeform, Reply: ReplyFallback}
	}

	if suggestsAppointment(reply) {
		s.Mode = domain.ModeNudgedAppointment
		e.log.Info("appointment nudge set", zap.String("session", s.ID))
	}
	return domain.TurnOutput{Intent: domain.IntentFreeform, Reply: reply}
}

// BreathingFollowup is the synthesized utterance queued after the breathing
// clip finishes playing.
func BreathingFollowup() string { return replyBreathingFollowup }
