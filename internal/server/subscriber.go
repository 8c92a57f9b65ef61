package server

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/epsilon/server/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Subscriber is one WebSocket client following a labyrinth. Clients only
// listen; anything they send is read and discarded.
type Subscriber struct {
	conn        *websocket.Conn
	send        chan []byte
	labyrinthID string
	ip          string
}

func newSubscriber(conn *websocket.Conn, labyrinthID, ip string, buffer int) *Subscriber {
	if buffer < 1 {
		buffer = 1
	}
	return &Subscriber{
		conn:        conn,
		send:        make(chan []byte, buffer),
		labyrinthID: labyrinthID,
		ip:          ip,
	}
}

// readPump keeps the pong deadline fresh and notices disconnects.
// It calls done once the connection is gone.
func (s *Subscriber) readPump(maxMessageSize int64, done func()) {
	defer func() {
		done()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("WebSocket read failed", "labyrinth_id", s.labyrinthID, "error", err)
			}
			return
		}
	}
}

// writePump drains the send queue and pings the client. It exits when the
// queue is closed or a write fails.
func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
