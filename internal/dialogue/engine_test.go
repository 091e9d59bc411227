package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"mindline/internal/domain"
)

type fakeResponder struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   []string
	cleared []string
}

func (f *fakeResponder) Respond(_ context.Context, sessionID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.err != nil {
		return "", f.err
	}
	if f.reply == "" {
		return "tell me more", nil
	}
	return f.reply, nil
}

func (f *fakeResponder) ClearHistory(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, sessionID)
}

type fakeNotifier struct {
	mu    sync.Mutex
	fired []domain.Notification
}

func (f *fakeNotifier) Fire(n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, n)
}

func (f *fakeNotifier) kinds() []domain.NotificationKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]domain.NotificationKind, len(f.fired))
	for i, n := range f.fired {
		kinds[i] = n.Kind
	}
	return kinds
}

func newTestEngine() (*Engine, *fakeResponder, *fakeNotifier) {
	responder := &fakeResponder{}
	notifier := &fakeNotifier{}
	return NewEngine(responder, notifier, zap.NewNop()), responder, notifier
}

func TestCrisisPreemptsEverything(t *testing.T) {
	t.Parallel()

	engine, responder, notifier := newTestEngine()
	s := domain.NewSession("s1")
	s.CallerPhone = "+911234"

	out := engine.Evaluate(context.Background(), s, "I want to kill myself, goodbye")

	if out.Intent != domain.IntentCrisis {
		t.Fatalf("expected crisis intent, got %s", out.Intent)
	}
	if out.Terminal {
		t.Fatal("crisis must not end the call")
	}
	if !s.Crisis {
		t.Fatal("crisis flag not set")
	}
	if s.Mood != domain.DefaultMood {
		t.Fatalf("mood branch ran on a crisis turn: %q", s.Mood)
	}
	if s.Interactions != 0 {
		t.Fatal("interaction counter ran on a crisis turn")
	}
	if len(responder.calls) != 0 {
		t.Fatal("responder ran on a crisis turn")
	}
	kinds := notifier.kinds()
	if len(kinds) != 1 || kinds[0] != domain.NotifyCrisisAlert {
		t.Fatalf("expected exactly one crisis alert, got %v", kinds)
	}
	if !strings.Contains(out.Reply, "iCALL") {
		t.Fatalf("expected scripted crisis reply, got %q", out.Reply)
	}
}

func TestCrisisFlagIsStickyAndAlertsOnce(t *testing.T) {
	t.Parallel()

	engine, _, notifier := newTestEngine()
	s := domain.NewSession("s1")

	engine.Evaluate(context.Background(), s, "i want to end my life")
	engine.Evaluate(context.Background(), s, "i still want to end my life")
	engine.Evaluate(context.Background(), s, "how are you")

	if !s.Crisis {
		t.Fatal("crisis flag reverted")
	}
	if got := notifier.kinds(); len(got) != 1 {
		t.Fatalf("crisis alert fired %d times", len(got))
	}
}

func TestMoodDetectionFallsThrough(t *testing.T) {
	t.Parallel()

	engine, responder, _ := newTestEngine()
	s := domain.NewSession("s1")

	out := engine.Evaluate(context.Background(), s, "I have been feeling very anxious about work lately")

	if s.Mood != "anxious" {
		t.Fatalf("expected mood anxious, got %q", s.Mood)
	}
	if out.Intent != domain.IntentFreeform {
		t.Fatalf("mood must fall through to freeform, got %s", out.Intent)
	}
	if len(responder.calls) != 1 {
		t.Fatal("responder should have handled the turn")
	}
	if s.Interactions != 1 {
		t.Fatalf("expected 1 interaction, got %d", s.Interactions)
	}
}

func TestMoodFirstCategoryWins(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine()
	s := domain.NewSession("s1")

	// "worried" (anxious) and "sad" both present; declared order wins.
	engine.Evaluate(context.Background(), s, "i am worried about things and also sad about everything")
	if s.Mood != "anxious" {
		t.Fatalf("expected anxious, got %q", s.Mood)
	}
}

func TestBreathingRequest(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine()
	s := domain.NewSession("s1")

	out := engine.Evaluate(context.Background(), s, "can we do a breathing exercise please")

	if out.Intent != domain.IntentBreathing {
		t.Fatalf("expected breathing intent, got %s", out.Intent)
	}
	if !out.BreathingClip {
		t.Fatal("breathing clip flag not set")
	}
	if len(s.Topics) == 0 || s.Topics[len(s.Topics)-1] != "Breathing exercise" {
		t.Fatalf("breathing topic not recorded: %v", s.Topics)
	}
}

func TestBookingFlowCollectsEmail(t *testing.T) {
	t.Parallel()

	engine, _, notifier := newTestEngine()
	s := domain.NewSession("s1")

	out := engine.Evaluate(context.Background(), s, "i want to book appointment with someone")
	if out.Intent != domain.IntentBookingRequested {
		t.Fatalf("expected booking intent, got %s", out.Intent)
	}
	if s.Mode != domain.ModeAwaitingEmail {
		t.Fatalf("expected awaiting email mode, got %s", s.Mode)
	}

	out = engine.Evaluate(context.Background(), s, "my email is a@b.com")
	if out.Intent != domain.IntentAwaitingEmailResolved {
		t.Fatalf("expected email resolution, got %s", out.Intent)
	}
	if s.Email != "a@b.com" {
		t.Fatalf("email not stored: %q", s.Email)
	}
	if s.Mode != domain.ModeListening {
		t.Fatalf("mode not cleared: %s", s.Mode)
	}
	if !strings.Contains(out.Reply, "a   a t   b   d o t   c o m") && !strings.Contains(out.Reply, "a t") {
		t.Fatalf("reply should spell out the email: %q", out.Reply)
	}
	kinds := notifier.kinds()
	if len(kinds) != 1 || kinds[0] != domain.NotifyBookingLink {
		t.Fatalf("expected booking link notification, got %v", kinds)
	}
}

func TestAwaitingEmailReprompts(t *testing.T) {
	t.Parallel()

	engine, _, notifier := newTestEngine()
	s := domain.NewSession("s1")
	s.Mode = domain.ModeAwaitingEmail

	out := engine.Evaluate(context.Background(), s, "um i don't remember it right now")

	if s.Mode != domain.ModeAwaitingEmail {
		t.Fatal("mode must stay set on extraction failure")
	}
	if !strings.Contains(out.Reply, "email address again") {
		t.Fatalf("expected re-prompt, got %q", out.Reply)
	}
	if len(notifier.kinds()) != 0 {
		t.Fatal("no notification on a failed extraction")
	}
}

func TestNudgeConfirmationSwitchesToAwaitingEmail(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine()
	s := domain.NewSession("s1")
	s.Mode = domain.ModeNudgedAppointment

	out := engine.Evaluate(context.Background(), s, "yes")

	if out.Intent != domain.IntentNudgeConfirmed {
		t.Fatalf("expected nudge confirmation, got %s", out.Intent)
	}
	if s.Mode != domain.ModeAwaitingEmail {
		t.Fatalf("expected awaiting email, got %s", s.Mode)
	}
	if !strings.Contains(strings.ToLower(out.Reply), "email") {
		t.Fatalf("reply should ask for an email: %q", out.Reply)
	}
}

func TestNudgeDecline(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine()
	s := domain.NewSession("s1")
	s.Mode = domain.ModeNudgedAppointment

	out := engine.Evaluate(context.Background(), s, "no thanks")

	if out.Intent != domain.IntentNudgeDeclined {
		t.Fatalf("expected decline, got %s", out.Intent)
	}
	if s.Mode != domain.ModeListening {
		t.Fatalf("mode not cleared: %s", s.Mode)
	}
}

func TestNudgeUnclearDefersToResponder(t *testing.T) {
	t.Parallel()

	engine, responder, _ := newTestEngine()
	s := domain.NewSession("s1")
	s.Mode = domain.ModeNudgedAppointment

	out := engine.Evaluate(context.Background(), s, "the weather has been strange this week")

	if out.Intent != domain.IntentFreeform {
		t.Fatalf("expected freeform, got %s", out.Intent)
	}
	if s.Mode != domain.ModeListening {
		t.Fatalf("nudge not cleared: %s", s.Mode)
	}
	if len(responder.calls) != 1 {
		t.Fatal("responder should have handled the turn")
	}
}

func TestModesAreMutuallyExclusive(t *testing.T) {
	t.Parallel()

	engine, responder, _ := newTestEngine()
	responder.reply = "maybe you should book an appointment with a professional therapist"
	s := domain.NewSession("s1")

	utterances := []string{
		"hello there, lovely day",
		"yes",
		"book appointment",
		"my email is someone@example.org",
		"what do you think about music",
		"bye",
	}
	for _, u := range utterances {
		engine.Evaluate(context.Background(), s, u)
		awaiting := s.Mode == domain.ModeAwaitingEmail
		nudged := s.Mode == domain.ModeNudgedAppointment
		if awaiting && nudged {
			t.Fatalf("both modes set after %q", u)
		}
	}
}

func TestSpontaneousEmailMention(t *testing.T) {
	t.Parallel()

	engine, _, notifier := newTestEngine()
	s := domain.NewSession("s1")

	out := engine.Evaluate(context.Background(), s, "you can reach me at friend@mail.org whenever")

	if out.Intent != domain.IntentSpontaneousEmail {
		t.Fatalf("expected spontaneous email, got %s", out.Intent)
	}
	if s.Email != "friend@mail.org" {
		t.Fatalf("email not stored: %q", s.Email)
	}
	kinds := notifier.kinds()
	if len(kinds) != 1 || kinds[0] != domain.NotifyBookingLink {
		t.Fatalf("expected booking link, got %v", kinds)
	}
}

func TestEmailHeuristicMisfireFallsToResponder(t *testing.T) {
	t.Parallel()

	engine, responder, _ := newTestEngine()
	s := domain.NewSession("s1")

	// Contains both "@" and "." but no extractable address. Must go to the
	// responder, skipping the farewell check even though "bye" appears.
	out := engine.Evaluate(context.Background(), s, "i was @ the park. then i said bye to my friend")

	if out.Intent != domain.IntentFreeform {
		t.Fatalf("expected freeform, got %s", out.Intent)
	}
	if out.Terminal {
		t.Fatal("heuristic misfire must not terminate the call")
	}
	if len(responder.calls) != 1 {
		t.Fatal("responder should have handled the turn")
	}
}

func TestFarewellWithKnownEmailSendsSummary(t *testing.T) {
	t.Parallel()

	engine, _, notifier := newTestEngine()
	s := domain.NewSession("s1")
	s.Email = "caller@example.com"
	s.Mood = "sad"
	s.AddTopic("work stress")

	out := engine.Evaluate(context.Background(), s, "ok bye")

	if out.Intent != domain.IntentFarewell || !out.Terminal {
		t.Fatalf("expected terminal farewell, got %+v", out)
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.fired) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.fired))
	}
	n := notifier.fired[0]
	if n.Kind != domain.NotifySessionSummary {
		t.Fatalf("expected session summary, got %s", n.Kind)
	}
	if n.Mood != "sad" || len(n.Topics) != 1 {
		t.Fatalf("summary payload missing session snapshot: %+v", n)
	}
}

func TestFarewellWithoutEmailSkipsSummary(t *testing.T) {
	t.Parallel()

	engine, _, notifier := newTestEngine()
	s := domain.NewSession("s1")

	out := engine.Evaluate(context.Background(), s, "goodbye")

	if !out.Terminal {
		t.Fatal("expected terminal flag")
	}
	if len(notifier.kinds()) != 0 {
		t.Fatal("no email known, no summary")
	}
}

func TestResponderFailureGetsScriptedFallback(t *testing.T) {
	t.Parallel()

	engine, responder, _ := newTestEngine()
	responder.err = errors.New("upstream timeout")
	s := domain.NewSession("s1")

	out := engine.Evaluate(context.Background(), s, "tell me something interesting about whales")

	if out.Reply != ReplyFallback {
		t.Fatalf("expected fallback reply, got %q", out.Reply)
	}
	if out.Terminal {
		t.Fatal("fallback must not terminate the call")
	}
}

func TestResponderNudgeSetsModeForNextTurn(t *testing.T) {
	t.Parallel()

	engine, responder, _ := newTestEngine()
	responder.reply = "It might help to book an appointment with someone."
	s := domain.NewSession("s1")

	out := engine.Evaluate(context.Background(), s, "i keep struggling with everything lately")

	if out.Intent != domain.IntentFreeform {
		t.Fatalf("expected freeform, got %s", out.Intent)
	}
	if s.Mode != domain.ModeNudgedAppointment {
		t.Fatalf("nudge mode not set, got %s", s.Mode)
	}
}

func TestTopicLogTruncatesAndBounds(t *testing.T) {
	t.Parallel()

	s := domain.NewSession("s1")
	long := strings.Repeat("x", 200)
	for i := 0; i < domain.MaxTopics+10; i++ {
		s.AddTopic(long)
	}
	if len(s.Topics) != domain.MaxTopics {
		t.Fatalf("topic log unbounded: %d", len(s.Topics))
	}
	if len(s.Topics[0]) > domain.MaxTopicLen+3 {
		t.Fatalf("topic not truncated: %d bytes", len(s.Topics[0]))
	}
}

func TestSpellOutEmail(t *testing.T) {
	t.Parallel()

	got := spellOutEmail("a@b.co")
	if !strings.Contains(got, "a t") || !strings.Contains(got, "d o t") {
		t.Fatalf("unexpected spelling: %q", got)
	}
}

func TestCrisisTopicTruncatesUtteranceNotPrefix(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine()
	s := domain.NewSession("s1")
	text := "I want to kill myself because nothing I try ever seems to make any of this better"

	engine.Evaluate(context.Background(), s, text)

	if len(s.Topics) != 1 {
		t.Fatalf("expected one topic, got %v", s.Topics)
	}
	want := "Crisis: " + text[:domain.MaxTopicLen] + "..."
	if s.Topics[0] != want {
		t.Fatalf("topic = %q, want %q", s.Topics[0], want)
	}
}
