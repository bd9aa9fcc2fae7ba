package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait / 4
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the page may be served from a file or another port
	CheckOrigin: func(r *http.Request) bool { return true },
}

// IsWebSocket reports whether r asks for a websocket upgrade
func IsWebSocket(r *http.Request) bool {
	return websocket.IsWebSocketUpgrade(r)
}

// ServeWebSocket streams observer messages to the client. Text frames from
// the client are run as commands and answered on the same socket.
func (s *Server) ServeWebSocket(w http.ResponseWriter, r *http.Request, o *Observer) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		log.Printf("[socket] Upgrade error: %v", err)
		return
	}
	defer conn.Close()

	sock := &socket{
		conn:     conn,
		server:   s,
		observer: o,
		done:     make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sock.readCommands(ctx)
	}()
	go func() {
		defer wg.Done()
		sock.writeEvents(ctx)
	}()
	wg.Wait()

	log.Printf("[socket] Observer %s disconnected", o.Id)
}

type socket struct {
	conn     *websocket.Conn
	server   *Server
	observer *Observer

	once sync.Once
	done chan struct{}
}

func (s *socket) stop() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *socket) readCommands(ctx context.Context) {
	defer s.stop()

	s.conn.SetReadLimit(MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		typ, b, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[socket] Read error: %v", err)
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}

		input := string(b)
		result, handled, err := s.server.dispatch(ctx, input)

		select {
		case s.observer.Events <- reply(input, result, handled, err):
		case <-s.done:
			return
		}
	}
}

func (s *socket) writeEvents(ctx context.Context) {
	defer s.stop()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case msg := <-s.observer.Events:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				log.Printf("[socket] Write %s error: %v", msg.Type, err)
				return
			}
		}
	}
}
