package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graphclient/internal/loader"
)

func (a *app) mirrorCmd() *cobra.Command {
	var (
		vertexQuery string
		edgeQuery   string
		wipe        bool
	)

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Copy vertices and edges into Neo4j",
		Long: `Fetch the vertices matching --vertex-query (and the edges matching
--edge-query, if given) and merge them into the Neo4j database configured by
NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD and NEO4J_DATABASE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Neo4jURI == "" {
				return fmt.Errorf("NEO4J_URI environment variable is not set")
			}
			ctx := cmd.Context()

			vertices, edges, err := a.fetch(cmd, vertexQuery, edgeQuery)
			if err != nil {
				return err
			}

			driver, err := loader.Connect(ctx, a.cfg.Neo4jURI, a.cfg.Neo4jUser, a.cfg.Neo4jPassword)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			l := loader.NewNeo4jLoader(driver, a.cfg.Neo4jDatabase)
			if wipe {
				a.logger.Warn("wiping neo4j database before mirror")
				if err := l.Wipe(ctx); err != nil {
					return fmt.Errorf("failed to wipe neo4j: %w", err)
				}
			}
			if err := l.ApplyConstraints(ctx, loader.VertexTypes(vertices)); err != nil {
				return err
			}
			if err := l.BatchLoadVertices(ctx, vertices); err != nil {
				return err
			}
			if err := l.BatchLoadEdges(ctx, edges); err != nil {
				return err
			}
			if err := l.RecordMirror(ctx, a.cfg.ServerURL, len(vertices), len(edges)); err != nil {
				return fmt.Errorf("failed to record mirror state: %w", err)
			}

			a.logger.Info("mirror complete",
				zap.Int("vertices", len(vertices)),
				zap.Int("edges", len(edges)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&vertexQuery, "vertex-query", "", "JSON vertex query")
	cmd.Flags().StringVar(&edgeQuery, "edge-query", "", "JSON edge query (edges are skipped when empty)")
	cmd.Flags().BoolVar(&wipe, "wipe", false, "delete everything in Neo4j first")
	cmd.MarkFlagRequired("vertex-query")
	return cmd
}
