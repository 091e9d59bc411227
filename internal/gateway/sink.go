package gateway

import (
	"encoding/base64"
	"sync"

	"github.com/gorilla/websocket"
)

// outboundMedia is the provider's envelope for one paced audio frame.
type outboundMedia struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
	Media     struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

// wsSink is the outbound half of one media socket. The websocket allows a
// single concurrent writer, so every write funnels through one mutex.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newSink(conn *websocket.Conn) *wsSink {
	return &wsSink{conn: conn}
}

func (s *wsSink) WriteMedia(streamID string, frame []byte) error {
	msg := outboundMedia{Event: "media", StreamSID: streamID}
	msg.Media.Payload = base64.StdEncoding.EncodeToString(frame)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (s *wsSink) CloseStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "call complete")
	_ = s.conn.WriteMessage(websocket.CloseMessage, closing)
	return s.conn.Close()
}
