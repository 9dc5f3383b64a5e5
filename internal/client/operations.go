package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"graphclient/internal/graph"
)

// CreateVertex creates a vertex of type t and returns its server-assigned id.
func (c *Client) CreateVertex(ctx context.Context, t string) Result[graph.VertexID] {
	const op = "create vertex"
	resp, err := c.do(ctx, op, http.MethodPost, "/vertex", url.Values{"type": {t}})
	if err != nil {
		return failed(graph.VertexID(""), err)
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return failed(graph.VertexID(""), &Error{Kind: KindTransport, Op: op, Status: TransportStatus, Err: errEmptyID})
	}
	return Result[graph.VertexID]{Status: resp.status, Value: parseVertexID(resp.body)}
}

// CreateEdge creates the edge (outID)-[t]->(inID) with the given weight.
// Only a 200 answer counts as success.
func (c *Client) CreateEdge(ctx context.Context, outID graph.VertexID, t string, inID graph.VertexID, weight float64) Result[struct{}] {
	const op = "create edge"
	path := fmt.Sprintf("/edge/%s/%s/%s",
		url.PathEscape(string(outID)), url.PathEscape(t), url.PathEscape(string(inID)))
	params := url.Values{"weight": {strconv.FormatFloat(weight, 'f', -1, 64)}}

	resp, err := c.do(ctx, op, http.MethodPut, path, params)
	if err != nil {
		return failed(struct{}{}, err)
	}
	if resp.status != http.StatusOK {
		return failed(struct{}{}, &Error{Kind: KindHTTPStatus, Op: op, Status: resp.status, Body: resp.body})
	}
	return Result[struct{}]{Status: http.StatusOK}
}

// GetVertices returns the vertices matching q.
func (c *Client) GetVertices(ctx context.Context, q graph.Query) Result[[]graph.Vertex] {
	const op = "get vertices"
	params, err := queryParams(op, q)
	if err != nil {
		return failed[[]graph.Vertex](nil, err)
	}
	resp, err := c.do(ctx, op, http.MethodGet, "/vertex", params)
	if err != nil {
		return failed[[]graph.Vertex](nil, err)
	}
	var vertices []graph.Vertex
	if err := decodeBody(op, resp.body, &vertices); err != nil {
		return failed[[]graph.Vertex](nil, err)
	}
	return Result[[]graph.Vertex]{Status: http.StatusOK, Value: vertices}
}

// GetEdges returns the edges matching q.
func (c *Client) GetEdges(ctx context.Context, q graph.Query) Result[[]graph.Edge] {
	const op = "get edges"
	params, err := queryParams(op, q)
	if err != nil {
		return failed[[]graph.Edge](nil, err)
	}
	resp, err := c.do(ctx, op, http.MethodGet, "/edge", params)
	if err != nil {
		return failed[[]graph.Edge](nil, err)
	}
	var edges []graph.Edge
	if err := decodeBody(op, resp.body, &edges); err != nil {
		return failed[[]graph.Edge](nil, err)
	}
	return Result[[]graph.Edge]{Status: http.StatusOK, Value: edges}
}

// GetEdgeCount returns the number of edges matching q, or -1 on failure.
func (c *Client) GetEdgeCount(ctx context.Context, q graph.Query) Result[int64] {
	const op = "count edges"
	params, err := queryParams(op, q)
	if err != nil {
		return failed[int64](-1, err)
	}
	params.Set("action", "count")

	resp, err := c.do(ctx, op, http.MethodGet, "/edge", params)
	if err != nil {
		return failed[int64](-1, err)
	}
	var count int64
	if err := decodeBody(op, resp.body, &count); err != nil {
		return failed[int64](-1, err)
	}
	return Result[int64]{Status: http.StatusOK, Value: count}
}

// DeleteVertices deletes the vertices matching q.
func (c *Client) DeleteVertices(ctx context.Context, q graph.Query) Result[struct{}] {
	return c.deleteMatching(ctx, "delete vertices", "/vertex", q)
}

// DeleteEdges deletes the edges matching q.
func (c *Client) DeleteEdges(ctx context.Context, q graph.Query) Result[struct{}] {
	return c.deleteMatching(ctx, "delete edges", "/edge", q)
}

func (c *Client) deleteMatching(ctx context.Context, op, path string, q graph.Query) Result[struct{}] {
	params, err := queryParams(op, q)
	if err != nil {
		return failed(struct{}{}, err)
	}
	resp, err := c.do(ctx, op, http.MethodDelete, path, params)
	if err != nil {
		return failed(struct{}{}, err)
	}
	return Result[struct{}]{Status: resp.status}
}

// RunScript is a placeholder for server-side script execution. It performs
// no I/O.
func (c *Client) RunScript(_ context.Context, name string, _ any) error {
	return fmt.Errorf("run script %q: %w", name, ErrNotImplemented)
}

// Transaction is a placeholder for server-side transactions. It performs no
// I/O.
func (c *Client) Transaction(_ context.Context) error {
	return fmt.Errorf("transaction: %w", ErrNotImplemented)
}

var errEmptyID = errors.New("failed to decode response: empty vertex id")

// parseVertexID accepts a JSON string or number body and falls back to the
// trimmed raw text.
func parseVertexID(body []byte) graph.VertexID {
	var id graph.VertexID
	if err := id.UnmarshalJSON(body); err == nil {
		return id
	}
	return graph.VertexID(bytes.TrimSpace(body))
}
