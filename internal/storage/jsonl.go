package storage

import (
	"encoding/json"
	"errors"
	"io"
	"sync"

	"graphclient/internal/graph"
)

// vertexRecord and edgeRecord are the line formats. Each line carries a
// "kind" so a combined file can be split again on read.
type vertexRecord struct {
	Kind string         `json:"kind"`
	ID   graph.VertexID `json:"id"`
	Type string         `json:"type"`
}

type edgeRecord struct {
	Kind     string         `json:"kind"`
	Outbound graph.VertexID `json:"outbound_id"`
	Type     string         `json:"type"`
	Inbound  graph.VertexID `json:"inbound_id"`
	Weight   float64        `json:"weight"`
}

func toVertexRecord(v *graph.Vertex) vertexRecord {
	return vertexRecord{Kind: "vertex", ID: v.ID, Type: v.Type}
}

func toEdgeRecord(e *graph.Edge) edgeRecord {
	return edgeRecord{
		Kind:     "edge",
		Outbound: e.Key.OutboundID,
		Type:     e.Key.Type,
		Inbound:  e.Key.InboundID,
		Weight:   e.Weight,
	}
}

// JSONLEmitter implements the Emitter interface for writing JSONL files.
type JSONLEmitter struct {
	w       io.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONLEmitter creates a new JSONLEmitter writing to w.
func NewJSONLEmitter(w io.Writer) *JSONLEmitter {
	return &JSONLEmitter{
		w:       w,
		encoder: json.NewEncoder(w),
	}
}

func (e *JSONLEmitter) EmitVertex(v *graph.Vertex) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encoder.Encode(toVertexRecord(v))
}

func (e *JSONLEmitter) EmitEdge(edge *graph.Edge) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encoder.Encode(toEdgeRecord(edge))
}

// Close closes the underlying writer if it implements io.Closer.
func (e *JSONLEmitter) Close() error {
	if c, ok := e.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SplitJSONLEmitter implements Emitter for writing vertices and edges to separate files.
type SplitJSONLEmitter struct {
	mu            sync.Mutex
	vertexEncoder *json.Encoder
	edgeEncoder   *json.Encoder
	vertexCloser  io.Closer
	edgeCloser    io.Closer
}

// NewSplitJSONLEmitter creates a new SplitJSONLEmitter.
func NewSplitJSONLEmitter(vertexW, edgeW io.Writer) *SplitJSONLEmitter {
	s := &SplitJSONLEmitter{
		vertexEncoder: json.NewEncoder(vertexW),
		edgeEncoder:   json.NewEncoder(edgeW),
	}
	if c, ok := vertexW.(io.Closer); ok {
		s.vertexCloser = c
	}
	if c, ok := edgeW.(io.Closer); ok {
		s.edgeCloser = c
	}
	return s
}

func (s *SplitJSONLEmitter) EmitVertex(v *graph.Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vertexEncoder.Encode(toVertexRecord(v))
}

func (s *SplitJSONLEmitter) EmitEdge(e *graph.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edgeEncoder.Encode(toEdgeRecord(e))
}

func (s *SplitJSONLEmitter) Close() error {
	var errs []error
	if s.vertexCloser != nil {
		errs = append(errs, s.vertexCloser.Close())
	}
	if s.edgeCloser != nil {
		errs = append(errs, s.edgeCloser.Close())
	}
	return errors.Join(errs...)
}
