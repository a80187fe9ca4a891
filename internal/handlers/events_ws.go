// internal/handlers/events_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/trustless-rewards/internal/middleware"
	"github.com/jason-s-yu/trustless-rewards/internal/models"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 5 * time.Second

var errSubscriptionClosed = errors.New("event subscription closed")

// EventsWSHandler streams every committed contract event to the client as JSON.
// The stream is read-only; client messages are discarded.
func (s *APIServer) EventsWSHandler(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"events"},
		OriginPatterns: s.Origins,
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if p := c.Subprotocol(); p != "" && p != "events" {
		c.Close(BadSubprotocolError, "client must speak the events subprotocol")
		return
	}

	id, ch := s.Hub.Subscribe()
	defer s.Hub.Unsubscribe(id)
	middleware.LogWebSocketConnect(s.Logger, remoteAddr, r.URL.Path, s.Hub.Subscribers())

	// CloseRead cancels ctx once the peer closes the connection.
	ctx := c.CloseRead(r.Context())
	err = writePump(ctx, c, ch, s.Logger)
	switch {
	case errors.Is(err, errSubscriptionClosed):
		c.Close(HubClosedError, "subscription closed")
	case errors.Is(err, context.Canceled):
		err = nil
	}
	middleware.LogWebSocketDisconnect(s.Logger, remoteAddr, r.URL.Path, err)
}

// writePump forwards events until the subscription closes or ctx ends.
func writePump(ctx context.Context, c *websocket.Conn, ch <-chan models.Event, logger *logrus.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c, ev)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("tx_id", ev.TxID).Debug("event write failed")
				return err
			}
		}
	}
}
