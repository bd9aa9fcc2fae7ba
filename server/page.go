package server

import (
	"bytes"
	_ "embed"
	"html/template"
	"log"
	"net/http"

	"coinmap.ai/game"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// IndexHandler handles GET / with the status page
func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rsp *StateResponse
	if err := s.Do(r.Context(), func(g *game.Session) {
		rsp = snapshot(g, false)
	}); err != nil {
		s.fail(w, err)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, rsp); err != nil {
		log.Printf("[server] Page error: %v", err)
		http.Error(w, "Page error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Write(buf.Bytes())
}
