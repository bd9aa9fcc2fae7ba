package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"coinmap.ai/command"
	"coinmap.ai/game"
	"coinmap.ai/spatial"
)

// StateResponse is the JSON view of the session
type StateResponse struct {
	Status    string             `json:"status"`
	Position  spatial.GeoPoint   `json:"position"`
	Cell      spatial.CellID     `json:"cell"`
	Inventory []spatial.Coin     `json:"inventory"`
	Trail     []spatial.GeoPoint `json:"trail"`
	Caches    []*game.CacheView  `json:"caches"`
}

// CommandResponse is the reply to a text command
type CommandResponse struct {
	Text  string `json:"text"`
	Error bool   `json:"error,omitempty"`
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.IndexHandler)
	mux.HandleFunc("/state", s.StateHandler)
	mux.HandleFunc("/command", s.CommandHandler)
	mux.HandleFunc("/location", s.LocationHandler)
	mux.HandleFunc("/events", s.EventsHandler)
	return WithCors(mux)
}

// snapshot builds the state view. It must run on the game goroutine.
// Caches are the ones within the scan radius unless all is set.
func snapshot(g *game.Session, all bool) *StateResponse {
	p := g.Player()
	rsp := &StateResponse{
		Status:    g.Status(),
		Position:  p.Position,
		Cell:      g.Caches().Grid().CellOf(p.Position),
		Inventory: p.Inventory.Coins(),
		Trail:     p.Trail(),
		Caches:    []*game.CacheView{},
	}
	if rsp.Inventory == nil {
		rsp.Inventory = []spatial.Coin{}
	}

	caches := g.Nearest(0, nil)
	if all {
		caches = g.Caches().Caches()
	}
	for _, c := range caches {
		rsp.Caches = append(rsp.Caches, g.View(c))
	}
	return rsp
}

// dispatch runs a text command on the game goroutine. handled is false
// when no command understood the input.
func (s *Server) dispatch(ctx context.Context, input string) (result string, handled bool, err error) {
	if len(input) > MaxMessageSize {
		input = input[:MaxMessageSize]
	}
	err = s.Do(ctx, func(g *game.Session) {
		result, handled = command.Dispatch(&command.Context{Game: g, Input: input})
	})
	return result, handled, err
}

// reply turns a dispatch outcome into a message for observers
func reply(input, result string, handled bool, err error) *Message {
	switch {
	case err != nil:
		return NewMessage("error", err.Error())
	case !handled:
		return NewMessage("error", unknown(input))
	}
	return NewResult(result)
}

func unknown(input string) string {
	return fmt.Sprintf("Unknown command %q, try /help", input)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrTimeout) {
		http.Error(w, "Timed out", http.StatusGatewayTimeout)
		return
	}
	http.Error(w, err.Error(), http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}

// StateHandler handles GET /state
func (s *Server) StateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	var rsp *StateResponse
	if err := s.Do(r.Context(), func(g *game.Session) {
		rsp = snapshot(g, all)
	}); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rsp)
}

// CommandHandler handles POST /command with a "prompt" form value
func (s *Server) CommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.ParseForm()

	prompt := r.Form.Get("prompt")
	if len(prompt) == 0 {
		http.Error(w, "Command cannot be blank", http.StatusBadRequest)
		return
	}

	result, handled, err := s.dispatch(r.Context(), prompt)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !handled {
		writeJSON(w, http.StatusBadRequest, &CommandResponse{Text: unknown(prompt), Error: true})
		return
	}
	writeJSON(w, http.StatusOK, &CommandResponse{
		Text:  result,
		Error: strings.HasPrefix(result, command.ErrorPrefix),
	})
}

// LocationHandler handles POST /location, a sensor fix with lat and lng
func (s *Server) LocationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.ParseForm()

	lat, err := strconv.ParseFloat(r.Form.Get("lat"), 64)
	if err != nil {
		http.Error(w, "Invalid lat", http.StatusBadRequest)
		return
	}
	lng, err := strconv.ParseFloat(r.Form.Get("lng"), 64)
	if err != nil {
		http.Error(w, "Invalid lng", http.StatusBadRequest)
		return
	}

	var (
		rsp     *StateResponse
		moveErr error
	)
	if err := s.Do(r.Context(), func(g *game.Session) {
		if moveErr = g.MoveTo(spatial.GeoPoint{Lat: lat, Lng: lng}); moveErr == nil {
			rsp = snapshot(g, false)
		}
	}); err != nil {
		s.fail(w, err)
		return
	}
	if moveErr != nil {
		http.Error(w, "Location unavailable", http.StatusBadRequest)
		return
	}
	log.Printf("[server] Location update (%s)", rsp.Position)
	writeJSON(w, http.StatusOK, rsp)
}

// EventsHandler handles GET /events as a websocket, or server-sent
// events for plain requests
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	o := NewObserver()
	defer close(o.Kill)

	s.Observe(o)
	o.Events <- NewMessage("connect", o.Id)

	if IsWebSocket(r) {
		s.ServeWebSocket(w, r, o)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Content-Type", "text/event-stream")

	for {
		select {
		case message := <-o.Events:
			b, _ := json.Marshal(message)
			fmt.Fprintf(w, "data: %v\n\n", string(b))

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

func WithCors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// if options return immediately
		if r.Method == http.MethodOptions {
			return
		}

		h.ServeHTTP(w, r)
	})
}
