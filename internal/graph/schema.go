package graph

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// VertexID is the server-assigned identifier of a vertex. The server may
// send it as a JSON string or a JSON number; both decode to the same text.
type VertexID string

// UUID parses the id as a UUID. Servers that issue UUID ids round-trip here.
func (id VertexID) UUID() (uuid.UUID, error) {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return uuid.Nil, fmt.Errorf("vertex id %q is not a uuid: %w", string(id), err)
	}
	return u, nil
}

func (id VertexID) String() string { return string(id) }

// UnmarshalJSON accepts both quoted and bare numeric ids.
func (id *VertexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = VertexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("vertex id must be a string or number: %w", err)
	}
	*id = VertexID(n.String())
	return nil
}

type Vertex struct {
	ID   VertexID `json:"id"`
	Type string   `json:"t"`
}

// EdgeKey identifies an edge: outbound vertex, type, inbound vertex.
type EdgeKey struct {
	OutboundID VertexID `json:"outbound_id"`
	Type       string   `json:"t"`
	InboundID  VertexID `json:"inbound_id"`
}

type Edge struct {
	Key    EdgeKey `json:"key"`
	Weight float64 `json:"weight"`
}

// Query is an opaque filter object. It is only ever serialized to JSON and
// interpreted by the server.
type Query = any
