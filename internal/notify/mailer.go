package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"mindline/internal/domain"
)

// MailerConfig holds SMTP delivery settings.
type MailerConfig struct {
	Host             string
	Port             int
	Username         string
	Password         string
	FromName         string
	EmergencyContact string
	BookingFormLink  string
}

// Mailer renders and delivers the three notification kinds over SMTP.
type Mailer struct {
	cfg  MailerConfig
	send func(*gomail.Message) error
}

func NewMailer(cfg MailerConfig) *Mailer {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromName == "" {
		cfg.FromName = "MindBloom AI"
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{cfg: cfg, send: func(m *gomail.Message) error { return dialer.DialAndSend(m) }}
}

// Deliver renders and sends one notification synchronously. The dispatcher
// is responsible for keeping this off the call path.
func (m *Mailer) Deliver(n domain.Notification) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		return errors.New("mail credentials not configured")
	}

	var to, subject, body string
	switch n.Kind {
	case domain.NotifyCrisisAlert:
		if m.cfg.EmergencyContact == "" {
			return errors.New("emergency contact not configured")
		}
		to = m.cfg.EmergencyContact
		subject = "URGENT: Crisis Alert from MindBloom AI"
		body = m.crisisAlertBody(n)
	case domain.NotifyBookingLink:
		to = n.Email
		subject = "Book Your Therapy Session - MindBloom AI"
		body = m.bookingLinkBody()
	case domain.NotifySessionSummary:
		to = n.Email
		subject = "Your MindBloom AI Session Summary"
		body = m.sessionSummaryBody(n)
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	if to == "" {
		return errors.New("notification has no recipient")
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.Username, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return m.send(msg)
}

func (m *Mailer) crisisAlertBody(n domain.Notification) string {
	return fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
<h1>Crisis Alert - Immediate Attention Required</h1>
<p>A caller has expressed concerning thoughts during their conversation.</p>
<table>
<tr><td><strong>Caller Phone:</strong></td><td>%s</td></tr>
<tr><td><strong>Time:</strong></td><td>%s</td></tr>
<tr><td><strong>Detected Statement:</strong></td><td><em>%q</em></td></tr>
</table>
<h3>Recommended Actions</h3>
<ul>
<li>Reach out to the caller immediately</li>
<li>Contact local emergency services if needed</li>
<li>iCALL Helpline: 9152987821</li>
<li>Vandrevala Foundation: 1860-2662-345</li>
</ul>
</body></html>`,
		n.CallerPhone, time.Now().Format("2006-01-02 15:04:05"), n.Detail)
}

func (m *Mailer) bookingLinkBody() string {
	return fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
<h1>Book Your Session</h1>
<p>We're so glad you're taking this important step towards your mental wellness.
Speaking with a professional can make a real difference.</p>
<p><a href="%s">Book Appointment Now</a></p>
<p>After you submit the form, our team will contact you within 24 hours to confirm
your appointment.</p>
</body></html>`, m.cfg.BookingFormLink)
}

func (m *Mailer) sessionSummaryBody(n domain.Notification) string {
	topics := n.Topics
	if len(topics) == 0 {
		topics = []string{"General wellness check-in"}
	}
	var items strings.Builder
	for _, t := range topics {
		items.WriteString("<li>" + t + "</li>")
	}

	return fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
<h1>Your Session Summary</h1>
<p>Thank you for taking time to care for your mental wellness today.</p>
<p><strong>Date:</strong> %s</p>
<p><strong>Mood Detected:</strong> %s</p>
<p><strong>Topics Discussed:</strong></p>
<ul>%s</ul>
<h3>Self-Care Resources</h3>
<ul>
<li><strong>Breathing Exercise:</strong> Try 4-7-8 breathing - inhale 4 sec, hold 7 sec, exhale 8 sec</li>
<li><strong>Grounding Technique:</strong> Name 5 things you see, 4 you hear, 3 you touch, 2 you smell, 1 you taste</li>
</ul>
<p>If you'd like to speak with a professional therapist, you can
<a href="%s">book an appointment</a>.</p>
<p>Crisis Helpline: iCALL 9152987821 | Vandrevala 1860-2662-345</p>
</body></html>`,
		time.Now().Format("January 2, 2006 at 3:04 PM"), n.Mood, items.String(), m.cfg.BookingFormLink)
}
