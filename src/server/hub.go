package server

import (
	"errors"
	"net/http"
	"time"

	"mt5-bridge/src/helpers"
	"mt5-bridge/src/metrics"
	"mt5-bridge/src/models"
	"mt5-bridge/src/platform"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main session-registry loop. Connect and disconnect events
// adjust the active-session count and land in the telemetry ring.
//
// The registry closes a session's send channel only on unregister, after its
// read loop has exited; a live read loop may still be producing a response
// for an in-flight request, so shutdown never closes send out from under it.
func (s *BridgeServer) runHub() {
	defer close(s.hubStopped)

	draining := false
	drainedClosed := false
	closeDrained := func() {
		if !drainedClosed {
			drainedClosed = true
			close(s.drained)
		}
	}

	for {
		select {
		case sess := <-s.register:
			s.sessions[sess] = struct{}{}
			active := s.Metrics.SessionOpened()
			s.Metrics.Log(models.SevInfo, "session %s connected (%d active)", sess.ShortID(), active)
			s.Logger.Info("session %s connected from %s", sess.ShortID(), sess.conn.RemoteAddr())

		case sess := <-s.unregister:
			if _, ok := s.sessions[sess]; ok {
				delete(s.sessions, sess)
				close(sess.send)
				active := s.Metrics.SessionClosed()
				s.Metrics.Log(models.SevInfo, "session %s disconnected (%d active)", sess.ShortID(), active)
			}
			if draining && len(s.sessions) == 0 {
				closeDrained()
			}

		case <-s.draining:
			// Polite phase: idle sessions get the close sentinel right away;
			// busy ones queue it themselves once the in-flight response is
			// out, so the response is never cut off by the close frame.
			draining = true
			for sess := range s.sessions {
				close(sess.stop)
				if !sess.busy.Load() {
					sess.deliver(nil)
				}
			}
			if len(s.sessions) == 0 {
				closeDrained()
			}

		case <-s.done:
			// Force phase: stragglers past the grace period. Closing the
			// conn unblocks each readPump; send stays open because a read
			// loop may still deliver into it on its way out.
			for sess := range s.sessions {
				sess.conn.Close()
				delete(s.sessions, sess)
				s.Metrics.SessionClosed()
			}
			return
		}
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *BridgeServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Warning("Failed to upgrade websocket: %v", err)
		return
	}

	sess := &Session{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now(),
		hub:         s,
		conn:        conn,
		// Buffered channel so one slow write never blocks dispatch
		send: make(chan *models.MResponse, 16),
		stop: make(chan struct{}),
	}

	select {
	case s.register <- sess:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go sess.writePump()
	go sess.readPump()
}

// -----------------------------------------------------------------------------
// Dispatch
// -----------------------------------------------------------------------------

// dispatch runs one request through the gateway and wraps it with the
// request/metrics pipeline: REQ entry, outcome classification, counters,
// journal row, structured response.
func (s *BridgeServer) dispatch(sess *Session, req *models.MRequest) *models.MResponse {
	start := time.Now()
	s.Metrics.Log(models.SevReq, "%s %s", sess.ShortID(), req.Capability)

	result, err := s.Gateway.Invoke(req)
	elapsed := time.Since(start)

	outcome := classifyOutcome(result, err)
	s.Metrics.Record(req.Capability, outcome, elapsed)
	s.appendJournal(sess, req, outcome, result, elapsed)

	resp := &models.MResponse{
		ID:        req.ID,
		ElapsedMs: metrics.RoundMs(elapsed),
	}
	if err != nil {
		kind, code := helpers.KindOf(err)
		resp.Error = &models.MErrorDetail{Kind: kind, Code: code, Message: err.Error()}
		return resp
	}
	resp.OK = true
	resp.Result = result
	return resp
}

// -----------------------------------------------------------------------------

// classifyOutcome derives the pipeline outcome. A trade result with a
// non-success retcode is TradeRejected: it flows back as a normal result, not
// a bridge error, but still counts as an errored request.
func classifyOutcome(result interface{}, err error) metrics.Outcome {
	if err == nil {
		if res, ok := result.(*models.MOrderResult); ok && !platform.RetcodeSuccess(res.Retcode) {
			return metrics.OutcomeTradeRejected
		}
		return metrics.OutcomeOK
	}

	var pu *helpers.PlatformUnavailableError
	if errors.As(err, &pu) {
		return metrics.OutcomePlatform
	}
	var ve *helpers.ValidationError
	if errors.As(err, &ve) {
		return metrics.OutcomeValidation
	}
	var ce *helpers.ConnectionError
	if errors.As(err, &ce) {
		return metrics.OutcomeConnection
	}
	return metrics.OutcomeMarshalling
}

// -----------------------------------------------------------------------------

// appendJournal persists the outcome; journal failures never fail a request.
func (s *BridgeServer) appendJournal(sess *Session, req *models.MRequest, outcome metrics.Outcome, result interface{}, elapsed time.Duration) {
	if s.Journal == nil {
		return
	}

	var retcode int32
	if res, ok := result.(*models.MOrderResult); ok {
		retcode = res.Retcode
	}

	entry := models.MJournalEntry{
		SessionID:  sess.ID,
		Capability: req.Capability,
		Outcome:    string(outcome),
		Retcode:    retcode,
		ElapsedMs:  metrics.RoundMs(elapsed),
		Timestamp:  time.Now().Unix(),
	}
	if err := s.Journal.Append(entry); err != nil {
		s.Logger.Warning("journal append failed: %v", err)
	}
}
