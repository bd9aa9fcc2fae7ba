// Package server exposes a game session over HTTP.
//
// One goroutine owns the session. Handlers never touch it directly: they
// submit jobs with Do and wait for them, so every game operation runs to
// completion before the next one starts. Session events are fanned out to
// observers, which is how the map page and websocket clients follow along.
package server

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"coinmap.ai/game"
)

const (
	MaxMessageSize = 1024
	DefaultTimeout = 5 * time.Second

	// observer buffer, a scan can spawn dozens of caches at once
	observerBuffer = 128
)

var ErrTimeout = errors.New("timed out waiting for the game")

// Message is what observers receive
type Message struct {
	Id      string      `json:"id"`
	Type    string      `json:"type"`
	Text    string      `json:"text,omitempty"`
	Created int64       `json:"created,string"`
	Event   *game.Event `json:"event,omitempty"`
}

type Observer struct {
	Id     string
	Events chan *Message
	Kill   chan bool
}

type job struct {
	fn   func(*game.Session)
	done chan struct{}
}

type Server struct {
	Created int64

	game    *game.Session
	jobs    chan *job
	timeout time.Duration

	mtx       sync.RWMutex
	observers map[string]*Observer
}

// New wraps a started session. Run must be called for requests to be served.
func New(g *game.Session, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &Server{
		Created:   time.Now().UnixNano(),
		game:      g,
		jobs:      make(chan *job),
		timeout:   timeout,
		observers: make(map[string]*Observer),
	}
	g.Subscribe(func(ev game.Event) {
		s.Broadcast(NewEvent(ev))
	})
	return s
}

func NewMessage(typ, text string) *Message {
	return &Message{
		Id:      uuid.New().String(),
		Type:    typ,
		Text:    text,
		Created: time.Now().UnixNano(),
	}
}

// NewEvent wraps a session event
func NewEvent(ev game.Event) *Message {
	m := NewMessage(string(ev.Type), ev.Text)
	m.Event = &ev
	return m
}

// NewResult carries the output of a command
func NewResult(text string) *Message {
	return NewMessage("result", text)
}

func NewObserver() *Observer {
	return &Observer{
		Id:     uuid.New().String(),
		Events: make(chan *Message, observerBuffer),
		Kill:   make(chan bool),
	}
}

// Do runs fn on the game goroutine and waits for it to finish. The timeout
// and ctx only bound the wait for the goroutine to take the job: once
// taken, the job always runs and Do returns after it has.
func (s *Server) Do(ctx context.Context, fn func(*game.Session)) error {
	j := &job{fn: fn, done: make(chan struct{})}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case s.jobs <- j:
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	<-j.done
	return nil
}

func (s *Server) Broadcast(message *Message) {
	var observers []*Observer

	s.mtx.RLock()
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mtx.RUnlock()

	for _, o := range observers {
		// slow observers miss messages rather than stall the game
		select {
		case o.Events <- message:
		default:
			log.Printf("[server] Observer %s is full, dropping %s", o.Id, message.Type)
		}
	}
}

// Observe registers o until its Kill channel is closed
func (s *Server) Observe(o *Observer) {
	s.mtx.Lock()
	s.observers[o.Id] = o
	count := len(s.observers)
	s.mtx.Unlock()

	log.Printf("[server] Observer %s connected (%d total)", o.Id, count)

	go func() {
		<-o.Kill
		s.mtx.Lock()
		delete(s.observers, o.Id)
		s.mtx.Unlock()
		log.Printf("[server] Observer %s closed", o.Id)
	}()
}

// Observers returns the number of connected observers
func (s *Server) Observers() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.observers)
}

// run executes one job, a panic fails the job but not the game
func (s *Server) run(j *job) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[server] Job panic: %v\n%s", r, debug.Stack())
		}
	}()
	j.fn(s.game)
}

// Run serves jobs until ctx is done, then saves the game one last time
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case j := <-s.jobs:
			s.run(j)
		case <-ctx.Done():
			if err := s.game.Save(); err != nil {
				log.Printf("[server] Final save error: %v", err)
			}
			return
		}
	}
}
