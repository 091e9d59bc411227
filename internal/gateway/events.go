package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"mindline/internal/domain"
)

// wireEvent mirrors the telephony provider's media-stream message envelope.
type wireEvent struct {
	Event string     `json:"event"`
	Start *wireStart `json:"start"`
	Media *wireMedia `json:"media"`
}

type wireStart struct {
	StreamSID        string            `json:"streamSid"`
	CustomParameters map[string]string `json:"customParameters"`
}

type wireMedia struct {
	Payload   string `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// parseEvent normalizes one raw socket message. Unknown event names come
// back with their kind set verbatim; the read loop ignores what it does not
// handle.
func parseEvent(data []byte) (domain.StreamEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.StreamEvent{}, fmt.Errorf("%w: stream event: %v", domain.ErrFormat, err)
	}

	ev := domain.StreamEvent{Kind: domain.EventKind(w.Event)}
	switch ev.Kind {
	case domain.EventStart:
		if w.Start == nil {
			return domain.StreamEvent{}, fmt.Errorf("%w: start event without body", domain.ErrFormat)
		}
		ev.StreamID = w.Start.StreamSID
		ev.CallerPhone = w.Start.CustomParameters["from"]
	case domain.EventMedia:
		if w.Media == nil {
			return domain.StreamEvent{}, fmt.Errorf("%w: media event without body", domain.ErrFormat)
		}
		frame, err := base64.StdEncoding.DecodeString(w.Media.Payload)
		if err != nil {
			return domain.StreamEvent{}, fmt.Errorf("%w: media payload: %v", domain.ErrFormat, err)
		}
		ev.Payload = frame
		if ts, err := strconv.ParseInt(w.Media.Timestamp, 10, 64); err == nil {
			ev.TimestampMs = ts
		}
	}
	return ev, nil
}
