package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graphclient/internal/graph"
	"graphclient/internal/storage"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		vertexQuery string
		edgeQuery   string
		output      string
		verticesOut string
		edgesOut    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export vertices and edges to JSONL",
		Long: `Fetch the vertices matching --vertex-query (and the edges matching
--edge-query, if given) and write them as JSON lines, either combined into
--output ("-" for stdout) or split into --vertices and --edges files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vertices, edges, err := a.fetch(cmd, vertexQuery, edgeQuery)
			if err != nil {
				return err
			}

			emitter, err := openEmitter(cmd, output, verticesOut, edgesOut)
			if err != nil {
				return err
			}
			err = emitAll(emitter, vertices, edges)
			if cerr := emitter.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			a.logger.Info("export complete",
				zap.Int("vertices", len(vertices)),
				zap.Int("edges", len(edges)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&vertexQuery, "vertex-query", "", "JSON vertex query")
	cmd.Flags().StringVar(&edgeQuery, "edge-query", "", "JSON edge query (edges are skipped when empty)")
	cmd.Flags().StringVarP(&output, "output", "o", "graph.jsonl", "combined output file")
	cmd.Flags().StringVar(&verticesOut, "vertices", "", "output file for vertices (split mode)")
	cmd.Flags().StringVar(&edgesOut, "edges", "", "output file for edges (split mode)")
	cmd.MarkFlagRequired("vertex-query")
	cmd.MarkFlagsRequiredTogether("vertices", "edges")
	return cmd
}

// nopCloser keeps the emitter from closing stdout.
type nopCloser struct{ io.Writer }

func openEmitter(cmd *cobra.Command, output, verticesOut, edgesOut string) (storage.Emitter, error) {
	if verticesOut != "" && edgesOut != "" {
		vf, err := os.Create(verticesOut)
		if err != nil {
			return nil, fmt.Errorf("failed to create vertices file: %w", err)
		}
		ef, err := os.Create(edgesOut)
		if err != nil {
			vf.Close()
			return nil, fmt.Errorf("failed to create edges file: %w", err)
		}
		return storage.NewSplitJSONLEmitter(vf, ef), nil
	}

	if output == "-" {
		return storage.NewJSONLEmitter(nopCloser{cmd.OutOrStdout()}), nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return storage.NewJSONLEmitter(f), nil
}

func emitAll(emitter storage.Emitter, vertices []graph.Vertex, edges []graph.Edge) error {
	for i := range vertices {
		if err := emitter.EmitVertex(&vertices[i]); err != nil {
			return fmt.Errorf("failed to emit vertex %s: %w", vertices[i].ID, err)
		}
	}
	for i := range edges {
		if err := emitter.EmitEdge(&edges[i]); err != nil {
			return fmt.Errorf("failed to emit edge: %w", err)
		}
	}
	return nil
}
