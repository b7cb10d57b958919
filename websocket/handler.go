package websocket

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeTimeout = 10 * time.Second

// HandleWebSocket upgrades the connection and streams the user's events.
// An optional ?lastSeq= query parameter requests replay of everything after
// that sequence number; a lastSeq older than the replay window is answered
// with a replay_gap close frame and the client must refetch over HTTP.
func HandleWebSocket(c echo.Context, hub *Hub, userID string) error {
	lastSeq := int64(-1)
	if raw := c.QueryParam("lastSeq"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "lastSeq must be a non-negative integer")
		}
		lastSeq = parsed
	}

	ch, err := hub.Subscribe(userID, lastSeq)
	var gap *ReplayGapError
	if errors.As(err, &gap) {
		conn, upErr := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if upErr != nil {
			return upErr
		}
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation,
			"replay_gap:"+strconv.FormatInt(gap.OldestRetained, 10))
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		conn.Close()
		return nil
	}
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.Unsubscribe(ch)
		return err
	}

	// Reader only watches for disconnect; clients do not send anything
	// meaningful upstream.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-ch.Events:
			if !ok {
				// Dropped by the hub for falling behind.
				conn.Close()
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("Failed to write event to user %s: %v", userID, err)
				hub.Unsubscribe(ch)
				conn.Close()
				return nil
			}
		case <-done:
			hub.Unsubscribe(ch)
			conn.Close()
			return nil
		}
	}
}
