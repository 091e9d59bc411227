package dialogue

import (
	"regexp"
	"strings"
)

// Keyword tables for intent detection. Matching is case-insensitive
// substring containment over the canonical-language utterance.

var crisisKeywords = []string{
	// Suicide-related
	"kill myself", "killing myself", "suicide", "suicidal", "suicidal thoughts",
	"want to die", "wanna die", "wanting to die", "wish i was dead", "wish i were dead",
	"end my life", "ending my life", "end it all", "ending it all", "end everything",
	"take my life", "taking my life", "take my own life",

	// Not wanting to live
	"don't want to live", "do not want to live", "dont want to live",
	"don't wanna live", "dont wanna live", "no will to live",
	"can't live anymore", "cant live anymore", "cannot live anymore",
	"tired of living", "tired of life", "done with life", "done living",

	// Giving up
	"give up on life", "giving up on life", "given up on life",
	"give up", "giving up", "i give up", "i'm giving up", "im giving up",
	"no reason to live", "no point in living", "nothing to live for",
	"life is meaningless", "life has no meaning", "life is pointless",

	// Hopelessness
	"better off dead", "world is better without me", "everyone is better without me",
	"no one would miss me", "nobody would miss me", "no one cares if i die",
	"hopeless", "completely hopeless", "there's no hope", "no hope left",
	"can't go on", "cant go on", "cannot go on", "can't continue", "cant continue",

	// Self-harm
	"self-harm", "self harm", "selfharm", "hurt myself", "hurting myself",
	"cut myself", "cutting myself", "harm myself", "harming myself",
	"injure myself", "injuring myself", "punish myself",

	// Overdose / methods
	"overdose", "take pills", "taking pills", "poison myself",
	"jump off", "jumping off", "hang myself", "hanging myself",

	// Life not worth it
	"life is not worth", "life isnt worth", "life isn't worth",
	"not worth living", "worthless life", "waste of life",
	"life is a burden", "burden to everyone", "burden to my family",

	// Single dangerous words in transliterated Hindi
	"khatam", "marna chahta", "marna chahti", "jaan dena", "zindagi khatam",
}

// moodCategories is evaluated in declared order; the first category with a
// matching keyword wins.
var moodCategories = []struct {
	mood     string
	keywords []string
}{
	{"anxious", []string{"anxious", "worried", "nervous", "panic", "stressed", "anxiety", "fear", "scared"}},
	{"sad", []string{"sad", "depressed", "lonely", "crying", "unhappy", "miserable", "grief", "down", "low"}},
	{"angry", []string{"angry", "frustrated", "irritated", "rage", "mad", "annoyed", "furious"}},
	{"happy", []string{"happy", "good", "great", "wonderful", "excited", "joyful", "grateful", "blessed"}},
	{"calm", []string{"calm", "peaceful", "relaxed", "content", "okay", "fine", "better"}},
}

var breathingTriggers = []string{
	"breathing exercise", "help me breathe", "calm me down", "breathing",
	"can't breathe", "panic attack", "help me relax", "meditation",
	"guided breathing", "deep breath",
}

var bookingTriggers = []string{
	"book appointment", "schedule therapy", "talk to therapist",
	"professional help", "see a counselor", "book session", "therapy appointment",
	"speak to someone", "real person", "human therapist",
}

var farewellPhrases = []string{
	"bye", "goodbye", "good bye", "see you", "take care",
	"that's all", "thats all", "i'm done", "im done", "thank you bye",
	"thanks bye", "end call", "hang up", "gotta go", "need to go",
	"talk later", "bye bye", "tata", "alvida", "dhanyavaad", "shukriya",
}

var confirmWords = []string{
	"yes", "yeah", "yep", "sure", "okay", "ok", "alright", "definitely",
	"of course", "absolutely", "please", "i would", "i'd like", "sounds good",
}

var declineWords = []string{
	"no", "nope", "not now", "not really", "maybe later", "no thanks",
	"no thank you", "don't want", "dont want", "not interested",
}

// nudgeIndicators detect appointment suggestions inside a responder reply.
var nudgeIndicators = []string{
	"booking link", "professional therapist", "connect with a professional",
	"book an appointment", "schedule a session",
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func detectCrisis(text string) bool { return containsAny(text, crisisKeywords) }

func detectMood(text string) string {
	for _, cat := range moodCategories {
		if containsAny(text, cat.keywords) {
			return cat.mood
		}
	}
	return ""
}

func detectBreathingRequest(text string) bool { return containsAny(text, breathingTriggers) }
func detectBookingRequest(text string) bool   { return containsAny(text, bookingTriggers) }
func detectFarewell(text string) bool         { return containsAny(text, farewellPhrases) }
func detectConfirmation(text string) bool     { return containsAny(text, confirmWords) }
func detectDecline(text string) bool          { return containsAny(text, declineWords) }

func suggestsAppointment(reply string) bool { return containsAny(reply, nudgeIndicators) }

// hasEmailHeuristic is the cheap pre-check for a spoken email address.
func hasEmailHeuristic(text string) bool {
	return strings.Contains(text, "@") && strings.Contains(text, ".")
}

// extractEmail pulls the first email address out of an utterance, if any.
func extractEmail(text string) string {
	if !strings.Contains(text, "@") || !strings.Contains(text, ".") {
		return ""
	}
	return emailPattern.FindString(text)
}

// spellOutEmail expands an address for spoken confirmation: each character
// separated, with "@" and "." read as words.
func spellOutEmail(email string) string {
	expanded := strings.ReplaceAll(email, "@", " at ")
	expanded = strings.ReplaceAll(expanded, ".", " dot ")
	chars := make([]string, 0, len(expanded))
	for _, r := range expanded {
		chars = append(chars, string(r))
	}
	return strings.Join(chars, " ")
}
