// Package fakeserver is an in-memory stand-in for the graph server's HTTP API.
//
// Queries are stored as received. The only filter it understands is an object
// with a string "type" field, which restricts vertices or edges to that type;
// every other query matches everything.
package fakeserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"graphclient/internal/graph"
)

type failure struct {
	status int
	body   string
}

// Server implements http.Handler.
type Server struct {
	router chi.Router

	mu       sync.Mutex
	vertices []graph.Vertex
	edges    []graph.Edge
	queries  []string
	failNext *failure
	requests int
}

func New() *Server {
	s := &Server{}

	r := chi.NewRouter()
	r.Use(s.countRequests, s.injectFailure)
	r.Post("/vertex", s.createVertex)
	r.Get("/vertex", s.getVertices)
	r.Delete("/vertex", s.deleteVertices)
	r.Put("/edge/{outID}/{t}/{inID}", s.createEdge)
	r.Get("/edge", s.getEdges)
	r.Delete("/edge", s.deleteEdges)
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// FailNext makes the next request answer with status and body.
func (s *Server) FailNext(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = &failure{status: status, body: body}
}

// Queries returns the raw "q" values received so far.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Requests returns the number of requests served.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// AddVertex seeds a vertex and returns its id.
func (s *Server) AddVertex(t string) graph.VertexID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := graph.VertexID(uuid.NewString())
	s.vertices = append(s.vertices, graph.Vertex{ID: id, Type: t})
	return id
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f := s.failNext
		s.failNext = nil
		s.mu.Unlock()

		if f != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createVertex(w http.ResponseWriter, r *http.Request) {
	t := r.URL.Query().Get("type")
	if t == "" {
		writeError(w, http.StatusBadRequest, "missing type")
		return
	}
	writeJSON(w, http.StatusOK, s.AddVertex(t))
}

func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	weight, err := strconv.ParseFloat(r.URL.Query().Get("weight"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid weight")
		return
	}
	// chi routes on RawPath when the request carries one, leaving params escaped.
	var segs [3]string
	for i, name := range []string{"outID", "t", "inID"} {
		seg := chi.URLParam(r, name)
		if r.URL.RawPath != "" {
			if seg, err = url.PathUnescape(seg); err != nil {
				writeError(w, http.StatusBadRequest, "invalid path segment "+name)
				return
			}
		}
		segs[i] = seg
	}
	key := graph.EdgeKey{
		OutboundID: graph.VertexID(segs[0]),
		Type:       segs[1],
		InboundID:  graph.VertexID(segs[2]),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasVertex(key.OutboundID) || !s.hasVertex(key.InboundID) {
		writeError(w, http.StatusNotFound, "vertex not found")
		return
	}
	for i, e := range s.edges {
		if e.Key == key {
			s.edges[i].Weight = weight
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	s.edges = append(s.edges, graph.Edge{Key: key, Weight: weight})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getVertices(w http.ResponseWriter, r *http.Request) {
	typ, ok := s.readQuery(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []graph.Vertex{}
	for _, v := range s.vertices {
		if typ == "" || v.Type == typ {
			out = append(out, v)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteVertices(w http.ResponseWriter, r *http.Request) {
	typ, ok := s.readQuery(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[graph.VertexID]bool)
	kept := s.vertices[:0]
	for _, v := range s.vertices {
		if typ == "" || v.Type == typ {
			removed[v.ID] = true
			continue
		}
		kept = append(kept, v)
	}
	s.vertices = kept

	edges := s.edges[:0]
	for _, e := range s.edges {
		if removed[e.Key.OutboundID] || removed[e.Key.InboundID] {
			continue
		}
		edges = append(edges, e)
	}
	s.edges = edges
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getEdges(w http.ResponseWriter, r *http.Request) {
	typ, ok := s.readQuery(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []graph.Edge{}
	for _, e := range s.edges {
		if typ == "" || e.Key.Type == typ {
			out = append(out, e)
		}
	}
	if r.URL.Query().Get("action") == "count" {
		writeJSON(w, http.StatusOK, len(out))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteEdges(w http.ResponseWriter, r *http.Request) {
	typ, ok := s.readQuery(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.edges[:0]
	for _, e := range s.edges {
		if typ == "" || e.Key.Type == typ {
			continue
		}
		kept = append(kept, e)
	}
	s.edges = kept
	w.WriteHeader(http.StatusOK)
}

// readQuery records the "q" parameter and extracts its optional type filter.
func (s *Server) readQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("q")

	s.mu.Lock()
	s.queries = append(s.queries, raw)
	s.mu.Unlock()

	var q any
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		writeError(w, http.StatusBadRequest, "query is not valid json")
		return "", false
	}
	if m, ok := q.(map[string]any); ok {
		if t, ok := m["type"].(string); ok {
			return t, true
		}
	}
	return "", true
}

func (s *Server) hasVertex(id graph.VertexID) bool {
	for _, v := range s.vertices {
		if v.ID == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}
