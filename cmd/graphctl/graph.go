package main

import (
	"github.com/spf13/cobra"

	"graphclient/internal/graph"
)

func (a *app) createVertexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-vertex TYPE",
		Short: "Create a vertex and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.client.CreateVertex(cmd.Context(), args[0])
			var id any = res.Value
			if !res.OK() {
				id = nil
			}
			return printResult(cmd, res, "id", id)
		},
	}
}

func (a *app) createEdgeCmd() *cobra.Command {
	var weight float64
	cmd := &cobra.Command{
		Use:   "create-edge OUTBOUND_ID TYPE INBOUND_ID",
		Short: "Create a weighted edge between two vertices",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.client.CreateEdge(cmd.Context(), graph.VertexID(args[0]), args[1], graph.VertexID(args[2]), weight)
			return printResult(cmd, res, "", nil)
		},
	}
	cmd.Flags().Float64Var(&weight, "weight", 1, "edge weight")
	return cmd
}

// queryCmd builds a command whose only input is a JSON query.
func (a *app) queryCmd(use, short string, run func(cmd *cobra.Command, q graph.Query) error) *cobra.Command {
	var raw string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := parseQuery(raw)
			if err != nil {
				return err
			}
			return run(cmd, q)
		},
	}
	cmd.Flags().StringVarP(&raw, "query", "q", "", "JSON query passed to the server")
	cmd.MarkFlagRequired("query")
	return cmd
}

func (a *app) verticesCmd() *cobra.Command {
	return a.queryCmd("vertices", "List vertices matching a query", func(cmd *cobra.Command, q graph.Query) error {
		res := a.client.GetVertices(cmd.Context(), q)
		return printResult(cmd, res, "vertices", res.Value)
	})
}

func (a *app) edgesCmd() *cobra.Command {
	return a.queryCmd("edges", "List edges matching a query", func(cmd *cobra.Command, q graph.Query) error {
		res := a.client.GetEdges(cmd.Context(), q)
		return printResult(cmd, res, "edges", res.Value)
	})
}

func (a *app) countEdgesCmd() *cobra.Command {
	return a.queryCmd("count-edges", "Count edges matching a query", func(cmd *cobra.Command, q graph.Query) error {
		res := a.client.GetEdgeCount(cmd.Context(), q)
		return printResult(cmd, res, "count", res.Value)
	})
}

func (a *app) deleteVerticesCmd() *cobra.Command {
	return a.queryCmd("delete-vertices", "Delete vertices matching a query", func(cmd *cobra.Command, q graph.Query) error {
		return printResult(cmd, a.client.DeleteVertices(cmd.Context(), q), "", nil)
	})
}

func (a *app) deleteEdgesCmd() *cobra.Command {
	return a.queryCmd("delete-edges", "Delete edges matching a query", func(cmd *cobra.Command, q graph.Query) error {
		return printResult(cmd, a.client.DeleteEdges(cmd.Context(), q), "", nil)
	})
}

// fetch reads the vertices and, when an edge query is given, the edges to
// export or mirror.
func (a *app) fetch(cmd *cobra.Command, vertexQuery, edgeQuery string) ([]graph.Vertex, []graph.Edge, error) {
	vq, err := parseQuery(vertexQuery)
	if err != nil {
		return nil, nil, err
	}
	vertices, err := a.client.GetVertices(cmd.Context(), vq).Unwrap()
	if err != nil {
		return nil, nil, err
	}
	if edgeQuery == "" {
		return vertices, nil, nil
	}

	eq, err := parseQuery(edgeQuery)
	if err != nil {
		return nil, nil, err
	}
	edges, err := a.client.GetEdges(cmd.Context(), eq).Unwrap()
	if err != nil {
		return nil, nil, err
	}
	return vertices, edges, nil
}

func (a *app) runScriptCmd() *cobra.Command {
	var payload string
	cmd := &cobra.Command{
		Use:   "run-script NAME",
		Short: "Run a server-side script (not implemented)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseQuery(payload)
			if err != nil {
				return err
			}
			return a.client.RunScript(cmd.Context(), args[0], p)
		},
	}
	cmd.Flags().StringVar(&payload, "payload", "null", "JSON payload for the script")
	return cmd
}
