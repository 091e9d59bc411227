package gateway

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
)

const voiceDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Say voice="Polly.Aditi">%s</Say>
    <Connect>
        <Stream url="%s">
            <Parameter name="from" value="%s"/>
        </Stream>
    </Connect>
</Response>`

// DefaultGreeting opens every call before the media stream connects.
const DefaultGreeting = "Hello! I'm Artika, your wellness companion from MindBloom. How are you feeling today?"

// VoiceHandler answers the provider's inbound-call webhook with the
// call-control document that greets the caller and connects the media
// stream back to this host. The caller's number rides along as a stream
// parameter so the session can reach the caller by phone later.
type VoiceHandler struct {
	greeting  string
	streamURL string
}

// NewVoiceHandler builds the webhook handler. An empty streamURL derives the
// websocket address from each request's host.
func NewVoiceHandler(greeting, streamURL string) *VoiceHandler {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &VoiceHandler{greeting: greeting, streamURL: streamURL}
}

func (h *VoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := h.streamURL
	if url == "" {
		url = "wss://" + r.Host + "/media-stream"
	}
	from := r.FormValue("From")

	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprintf(w, voiceDocument, xmlEscape(h.greeting), xmlEscape(url), xmlEscape(from))
}

// xmlEscape covers both element text and attribute values.
func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
