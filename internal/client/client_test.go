package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"graphclient/internal/client"
	"graphclient/internal/graph"
)

// recorder captures the last request and answers with a canned response.
type recorder struct {
	status int
	body   string
	last   atomic.Pointer[http.Request]
	calls  atomic.Int32
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec.calls.Add(1)
	rec.last.Store(r)
	w.WriteHeader(rec.status)
	w.Write([]byte(rec.body))
}

func newTestClient(t *testing.T, status int, body string) (*client.Client, *recorder) {
	t.Helper()
	rec := &recorder{status: status, body: body}
	server := httptest.NewServer(rec)
	t.Cleanup(server.Close)

	c, err := client.New(server.URL)
	require.NoError(t, err)
	return c, rec
}

// deadClient points at a server that has already been shut down.
func deadClient(t *testing.T) *client.Client {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := client.New(url)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	_, err := client.New("")
	assert.Error(t, err)

	_, err = client.New("localhost:8000")
	assert.Error(t, err)

	c, err := client.New("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

func TestCreateVertex(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, "42")

	res := c.CreateVertex(context.Background(), "person")

	require.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, graph.VertexID("42"), res.Value)
	assert.Equal(t, http.MethodPost, rec.last.Load().Method)
	assert.Equal(t, "/vertex", rec.last.Load().URL.Path)
	assert.Equal(t, "person", rec.last.Load().URL.Query().Get("type"))
}

func TestCreateVertex_QuotedID(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `"8a5f0c2e-4c1b-4f6e-9d4a-6f1a2b3c4d5e"`)

	id, err := c.CreateVertex(context.Background(), "person").Unwrap()
	require.NoError(t, err)
	assert.Equal(t, graph.VertexID("8a5f0c2e-4c1b-4f6e-9d4a-6f1a2b3c4d5e"), id)
}

func TestCreateVertex_ForwardsSuccessStatus(t *testing.T) {
	c, _ := newTestClient(t, http.StatusCreated, "7")

	res := c.CreateVertex(context.Background(), "person")
	require.True(t, res.OK())
	assert.Equal(t, http.StatusCreated, res.Status)
}

func TestCreateVertex_EmptyBody(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, "  ")

	res := c.CreateVertex(context.Background(), "person")

	require.False(t, res.OK())
	assert.Equal(t, client.TransportStatus, res.Status)
	assert.Equal(t, graph.VertexID(""), res.Value)
	assert.Equal(t, client.KindTransport, res.Err.Kind)
	assert.Equal(t, int32(1), rec.calls.Load())
}

func TestCreateVertex_ServerError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusBadRequest, `{"msg":"bad type"}`)

	res := c.CreateVertex(context.Background(), "")

	require.False(t, res.OK())
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, graph.VertexID(""), res.Value)
	assert.Equal(t, client.KindHTTPStatus, res.Err.Kind)
	assert.Equal(t, map[string]any{"msg": "bad type"}, res.Err.Reason())
}

func TestCreateEdge(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, "")

	res := c.CreateEdge(context.Background(), "a", "follows", "b", 0.5)

	require.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Nil(t, res.Err)
	assert.Equal(t, http.MethodPut, rec.last.Load().Method)
	assert.Equal(t, "/edge/a/follows/b", rec.last.Load().URL.Path)
	assert.Equal(t, "0.5", rec.last.Load().URL.Query().Get("weight"))
}

func TestCreateEdge_Non200Success(t *testing.T) {
	c, _ := newTestClient(t, http.StatusAccepted, "queued")

	res := c.CreateEdge(context.Background(), "a", "follows", "b", 1)

	require.False(t, res.OK())
	assert.Equal(t, http.StatusAccepted, res.Status)
	assert.Equal(t, client.KindHTTPStatus, res.Err.Kind)
	assert.Equal(t, "queued", res.Err.Reason())
}

func TestGetVertices(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `[{"id":"1","t":"person"},{"id":2,"t":"place"}]`)

	res := c.GetVertices(context.Background(), map[string]string{"type": "foo"})

	require.True(t, res.OK())
	assert.Equal(t, []graph.Vertex{{ID: "1", Type: "person"}, {ID: "2", Type: "place"}}, res.Value)
	assert.Equal(t, http.MethodGet, rec.last.Load().Method)
	assert.Contains(t, rec.last.Load().URL.RawQuery, "q=%7B%22type%22%3A%22foo%22%7D")
}

func TestGetEdges(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `[{"key":{"outbound_id":"a","t":"follows","inbound_id":"b"},"weight":2}]`)

	res := c.GetEdges(context.Background(), map[string]string{"type": "foo"})

	require.True(t, res.OK())
	require.Len(t, res.Value, 1)
	assert.Equal(t, graph.EdgeKey{OutboundID: "a", Type: "follows", InboundID: "b"}, res.Value[0].Key)
	assert.Equal(t, 2.0, res.Value[0].Weight)
	assert.Equal(t, "/edge", rec.last.Load().URL.Path)
	assert.Equal(t, "q=%7B%22type%22%3A%22foo%22%7D", rec.last.Load().URL.RawQuery)
}

func TestGetEdgeCount(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, "7")

	res := c.GetEdgeCount(context.Background(), map[string]string{"type": "foo"})

	require.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, int64(7), res.Value)
	assert.Equal(t, "count", rec.last.Load().URL.Query().Get("action"))
	assert.Equal(t, `{"type":"foo"}`, rec.last.Load().URL.Query().Get("q"))
}

func TestDelete_ForwardsStatus(t *testing.T) {
	c, rec := newTestClient(t, http.StatusNoContent, "")

	res := c.DeleteVertices(context.Background(), map[string]string{"type": "foo"})
	require.True(t, res.OK())
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Equal(t, http.MethodDelete, rec.last.Load().Method)
	assert.Equal(t, "/vertex", rec.last.Load().URL.Path)

	res = c.DeleteEdges(context.Background(), map[string]string{"type": "foo"})
	require.True(t, res.OK())
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Equal(t, "/edge", rec.last.Load().URL.Path)
}

func TestQueryOperations_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.StatusNotFound, `{"msg":"not found"}`)
	ctx := context.Background()
	q := map[string]string{"type": "foo"}
	want := map[string]any{"msg": "not found"}

	vertices := c.GetVertices(ctx, q)
	assert.Equal(t, http.StatusNotFound, vertices.Status)
	assert.Nil(t, vertices.Value)
	assert.Equal(t, want, vertices.Err.Reason())

	edges := c.GetEdges(ctx, q)
	assert.Equal(t, http.StatusNotFound, edges.Status)
	assert.Nil(t, edges.Value)
	assert.Equal(t, want, edges.Err.Reason())

	count := c.GetEdgeCount(ctx, q)
	assert.Equal(t, http.StatusNotFound, count.Status)
	assert.Equal(t, int64(-1), count.Value)
	assert.Equal(t, want, count.Err.Reason())

	for _, res := range []client.Result[struct{}]{c.DeleteVertices(ctx, q), c.DeleteEdges(ctx, q)} {
		assert.Equal(t, http.StatusNotFound, res.Status)
		assert.Equal(t, client.KindHTTPStatus, res.Err.Kind)
		assert.Equal(t, want, res.Err.Reason())
	}
}

func TestTransportFailure(t *testing.T) {
	c := deadClient(t)
	ctx := context.Background()
	q := map[string]string{"type": "foo"}

	statuses := map[string]int{
		"create vertex":   c.CreateVertex(ctx, "person").Status,
		"create edge":     c.CreateEdge(ctx, "a", "t", "b", 1).Status,
		"get vertices":    c.GetVertices(ctx, q).Status,
		"get edges":       c.GetEdges(ctx, q).Status,
		"count edges":     c.GetEdgeCount(ctx, q).Status,
		"delete vertices": c.DeleteVertices(ctx, q).Status,
		"delete edges":    c.DeleteEdges(ctx, q).Status,
	}
	for op, status := range statuses {
		assert.Equal(t, client.TransportStatus, status, op)
	}

	count := c.GetEdgeCount(ctx, q)
	assert.Equal(t, int64(-1), count.Value)
	assert.Equal(t, client.KindTransport, count.Err.Kind)
	reason, ok := count.Err.Reason().(error)
	require.True(t, ok)
	assert.Error(t, reason)
}

func TestTransportFailure_Cancelled(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, "[]")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.GetVertices(ctx, map[string]string{})

	assert.Equal(t, client.TransportStatus, res.Status)
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.Equal(t, int32(0), rec.calls.Load())
}

func TestUnencodableQuery(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, "[]")

	res := c.GetEdges(context.Background(), map[string]any{"f": func() {}})

	assert.Equal(t, client.TransportStatus, res.Status)
	assert.Equal(t, client.KindTransport, res.Err.Kind)
	assert.Equal(t, int32(0), rec.calls.Load())
}

func TestUndecodableBody(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, "not json")

	res := c.GetVertices(context.Background(), map[string]string{})

	assert.Equal(t, client.TransportStatus, res.Status)
	assert.Nil(t, res.Value)
	assert.Contains(t, res.Err.Error(), "failed to decode response")
}

func TestPlaceholders(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, "")

	err := c.RunScript(context.Background(), "traverse.lua", map[string]int{"depth": 2})
	assert.ErrorIs(t, err, client.ErrNotImplemented)

	err = c.Transaction(context.Background())
	assert.ErrorIs(t, err, client.ErrNotImplemented)

	assert.Equal(t, int32(0), rec.calls.Load())
}

func TestResult_Unwrap(t *testing.T) {
	c, _ := newTestClient(t, http.StatusInternalServerError, "boom")

	count, err := c.GetEdgeCount(context.Background(), nil).Unwrap()

	assert.Equal(t, int64(-1), count)
	var cerr *client.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, http.StatusInternalServerError, cerr.Status)
	assert.True(t, strings.Contains(cerr.Error(), "boom"))
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rec := &recorder{status: http.StatusOK, body: "3"}
	server := httptest.NewServer(rec)
	defer server.Close()

	c, err := client.New(server.URL, client.WithLogger(zap.New(core)))
	require.NoError(t, err)

	c.GetEdgeCount(context.Background(), map[string]string{})

	entries := logs.FilterMessage("graph request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, "count edges", entries[0].ContextMap()["op"])
}
