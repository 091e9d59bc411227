package dialogue

import "fmt"

// Scripted replies in the canonical language. Translation to the caller's
// language happens after the state machine.

const replyCrisis = "I hear you, and I want you to know that you matter. " +
	"What you're feeling right now is temporary, even though it doesn't feel that way. " +
	"Please, let's talk. If things feel too overwhelming, please reach out to iCALL at 9152987821 " +
	"or Vandrevala Foundation at 1860-2662-345. I'm here with you right now."

const replyBreathingIntro = "Of course, let's do a calming breathing exercise together. " +
	"Get comfortable, close your eyes if you like, and follow along with this one-minute guided breathing."

const replyBreathingFollowup = "Take a moment to notice how you feel now. " +
	"Your body and mind have had a chance to reset. How are you feeling?"

const replyEmailRetry = "I didn't quite catch that email address. " +
	"Could you please share your email address again? For example, yourname at gmail dot com."

const replyNudgeConfirmed = "That's wonderful! Taking this step shows real strength. " +
	"Could you please share your email address so I can send you the booking link?"

const replyNudgeDeclined = "That's completely okay. Remember, I'm always here whenever you need to talk. " +
	"Is there anything else on your mind that you'd like to share?"

const replyAskEmail = "I'd be happy to help you book an appointment with a professional therapist. " +
	"Could you please share your email address so I can send you the booking link?"

const replyFarewell = "Thank you so much for sharing with me today. " +
	"Remember, you're stronger than you know, and I'm always here whenever you need to talk. " +
	"Take care of yourself, and don't hesitate to reach out anytime. Wishing you peace and wellness. Goodbye!"

// ReplyFallback is substituted when the open-domain responder fails, so the
// caller always gets an acknowledgement.
const ReplyFallback = "I'm here for you. Could you tell me a bit more about what's on your mind? " +
	"I want to make sure I understand."

func replyEmailConfirmed(spelled string) string {
	return fmt.Sprintf("Perfect! I've sent the appointment booking link to %s. "+
		"You'll receive it shortly. Our team will get back to you within 24 hours. "+
		"Is there anything else you'd like to talk about?", spelled)
}

func replyBookingWithKnownEmail(email string) string {
	return fmt.Sprintf("That's a wonderful step towards your wellness journey. "+
		"I've sent an appointment booking link to %s. You can fill out the form, "+
		"and our team will get back to you within 24 hours. "+
		"Is there anything else you'd like to talk about?", email)
}

func replySpontaneousEmail(spelled string) string {
	return fmt.Sprintf("Thank you! I've noted your email as %s and sent you the therapist booking link. "+
		"Is there anything else you'd like to talk about?", spelled)
}
