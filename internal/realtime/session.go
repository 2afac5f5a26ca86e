package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// clientMessage is what connected clients may send back. Acks are logged;
// delivery does not depend on them.
type clientMessage struct {
	Type           string `json:"type"`
	NotificationID string `json:"notificationId,omitempty"`
}

// Session pumps events to one websocket connection.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	logg   *logger.Logger

	send      chan any
	closeOnce sync.Once
	done      chan struct{}
}

// NewSession wraps an upgraded connection for the given user.
func NewSession(hub *Hub, conn *websocket.Conn, userID int64, logg *logger.Logger) *Session {
	return &Session{
		hub:    hub,
		conn:   conn,
		userID: userID,
		logg:   logg,
		send:   make(chan any, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (s *Session) UserID() int64 { return s.userID }

// Deliver queues the event without blocking the publisher. A session whose
// buffer is full or that is shutting down refuses the event.
func (s *Session) Deliver(event any) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- event:
		return true
	default:
		return false
	}
}

// Run registers the session and pumps until the connection dies or the
// context is cancelled. It always unregisters before returning.
func (s *Session) Run(ctx context.Context) {
	s.hub.Register(s)
	defer func() {
		s.hub.Unregister(s)
		s.close()
	}()

	go s.writePump(ctx)
	s.readPump(ctx)
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *Session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.Type == "ack" && msg.NotificationID != "" && s.logg != nil {
			lctx := s.logg.WithFields(ctx, map[string]any{
				"user_id":         s.userID,
				"notification_id": msg.NotificationID,
			})
			s.logg.Info(lctx, "realtime.ack")
		}
	}
}

func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case event := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(event); err != nil {
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
