// Package gateway terminates the telephony provider's side of a call: the
// webhook that answers inbound calls with a stream-connect document, and the
// websocket carrying bidirectional audio events.
package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mindline/internal/domain"
	"mindline/internal/usecase"
)

// StreamHandler upgrades media-stream websockets and pumps their events into
// the session registry. One connection is one call.
type StreamHandler struct {
	registry *usecase.Registry
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewStreamHandler(registry *usecase.Registry, log *zap.Logger) *StreamHandler {
	return &StreamHandler{
		registry: registry,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The provider's media host does not send a browser origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.pump(uuid.NewString(), conn)
}

// pump is the per-connection read loop: it normalizes raw socket messages
// into stream events and feeds the registry until the socket drops or a stop
// event arrives. Teardown runs on every exit path.
func (h *StreamHandler) pump(connID string, conn *websocket.Conn) {
	defer func() {
		h.registry.StopStream(connID)
		_ = conn.Close()
	}()

	sink := newSink(conn)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("media socket dropped",
					zap.String("conn", connID), zap.Error(err))
			}
			return
		}

		ev, err := parseEvent(data)
		if err != nil {
			h.log.Debug("unparseable stream event", zap.Error(err))
			continue
		}

		switch ev.Kind {
		case domain.EventStart:
			h.registry.StartStream(connID, ev.StreamID, ev.CallerPhone, sink)
		case domain.EventMedia:
			if err := h.registry.HandleMedia(connID, ev.Payload); err != nil {
				h.log.Debug("media frame dropped", zap.Error(err))
			}
		case domain.EventStop:
			return
		case domain.EventMark:
			// Playback acknowledgements need no action.
		default:
			// "connected" and future event names fall through here.
		}
	}
}
