package server

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"mt5-bridge/src/helpers"
	"mt5-bridge/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	defaultIdle    = 60 * time.Second
	maxMessageSize = 64 * 1024
)

// -----------------------------------------------------------------------------
// Session Structure
//
// One logical connected client: identity, connect time and the connection
// pair of pumps. Requests of one session run sequentially in its read loop;
// sessions are mutually concurrent.
// -----------------------------------------------------------------------------

type Session struct {
	ID          string
	ConnectedAt time.Time

	hub  *BridgeServer
	conn *websocket.Conn

	// send carries responses to the write pump. A nil entry is the drain
	// sentinel: everything queued before it gets flushed, then the pump
	// writes a close frame and exits. Only readPump and the hub enqueue;
	// only the hub closes, and only after readPump has unregistered.
	send chan *models.MResponse

	// stop is closed by the hub when the bridge is draining.
	stop chan struct{}
	// busy is set while a request is being dispatched, so the hub knows
	// not to cut in front of a response that is still being produced.
	busy atomic.Bool
}

// ShortID is the identity prefix used in log lines.
func (s *Session) ShortID() string {
	if len(s.ID) > 8 {
		return s.ID[:8]
	}
	return s.ID
}

// -----------------------------------------------------------------------------

func (s *Session) idleTimeout() time.Duration {
	if s.hub.Config.IdleTimeoutSeconds > 0 {
		return time.Duration(s.hub.Config.IdleTimeoutSeconds) * time.Second
	}
	return defaultIdle
}

// -----------------------------------------------------------------------------
// readPump - receives requests and dispatches them in order
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (s *Session) readPump() {
	polite := false
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.hubStopped:
		}
		if !polite {
			s.conn.Close()
		}
	}()

	idle := s.idleTimeout()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(idle))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(idle))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				cerr := helpers.NewConnectionError(err, "session %s transport failure", s.ShortID())
				s.hub.Logger.Warning("%v", cerr)
			}
			break
		}
		s.conn.SetReadDeadline(time.Now().Add(idle))
		s.busy.Store(true)

		var req models.MRequest
		if err := json.Unmarshal(message, &req); err != nil {
			// Malformed frame: structured error back, session stays up.
			s.deliver(&models.MResponse{
				Error: &models.MErrorDetail{
					Kind:    helpers.KindValidationFailure,
					Message: "malformed request payload",
				},
			})
		} else {
			s.deliver(s.hub.dispatch(s, &req))
		}
		s.busy.Store(false)

		select {
		case <-s.stop:
			// Draining: the response is already queued, the close frame
			// follows it. The write pump owns the connection from here.
			s.deliver(nil)
			polite = true
			return
		default:
		}
	}
}

// -----------------------------------------------------------------------------

// deliver hands a response to the write pump. A client that stopped reading
// gets disconnected rather than blocking dispatch.
func (s *Session) deliver(resp *models.MResponse) {
	select {
	case s.send <- resp:
	default:
		s.hub.Logger.Warning("session %s send buffer full, closing", s.ShortID())
		s.conn.Close()
	}
}

// -----------------------------------------------------------------------------
// writePump - sends responses to the client
// -----------------------------------------------------------------------------

func (s *Session) writePump() {
	idle := s.idleTimeout()
	pingPeriod := idle * 9 / 10

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case resp, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if resp == nil {
				// Drain sentinel: every response queued before it has been
				// flushed, so the client loses nothing.
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}

			if err := s.conn.WriteJSON(resp); err != nil {
				s.hub.Logger.Warning("session %s write error: %v", s.ShortID(), err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
