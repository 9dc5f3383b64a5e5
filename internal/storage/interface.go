package storage

import "graphclient/internal/graph"

type Emitter interface {
	EmitVertex(v *graph.Vertex) error
	EmitEdge(e *graph.Edge) error
	Close() error
}
