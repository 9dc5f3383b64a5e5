package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"graphclient/internal/graph"
)

// Neo4jLoader mirrors vertices and edges fetched from the graph server into Neo4j.
type Neo4jLoader struct {
	Driver neo4j.DriverWithContext
	DBName string
}

// NewNeo4jLoader creates a new loader instance.
func NewNeo4jLoader(driver neo4j.DriverWithContext, dbName string) *Neo4jLoader {
	return &Neo4jLoader{
		Driver: driver,
		DBName: dbName,
	}
}

// Connect opens and verifies a Neo4j driver.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify connectivity to neo4j: %w", err)
	}
	return driver, nil
}

// BatchLoadVertices loads vertices using UNWIND, one statement per vertex type.
func (l *Neo4jLoader) BatchLoadVertices(ctx context.Context, vertices []graph.Vertex) error {
	if len(vertices) == 0 {
		return nil
	}

	batches := groupVerticesByType(vertices)

	session := l.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.DBName})
	defer session.Close(ctx)

	for label, batch := range batches {
		query := buildVertexQuery(label)
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx, query, map[string]any{"batch": batch})
		})
		if err != nil {
			return fmt.Errorf("failed to load vertices for type %s: %w", label, err)
		}
	}

	return nil
}

// BatchLoadEdges loads edges using UNWIND, one statement per edge type.
// Endpoints must already be loaded.
func (l *Neo4jLoader) BatchLoadEdges(ctx context.Context, edges []graph.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	batches := groupEdgesByType(edges)

	session := l.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.DBName})
	defer session.Close(ctx)

	for relType, batch := range batches {
		query := buildEdgeQuery(relType)
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx, query, map[string]any{"batch": batch})
		})
		if err != nil {
			return fmt.Errorf("failed to load edges for type %s: %w", relType, err)
		}
	}

	return nil
}

// Wipe deletes all data from the database.
func (l *Neo4jLoader) Wipe(ctx context.Context) error {
	session := l.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.DBName})
	defer session.Close(ctx)

	query := buildWipeQuery()
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, nil)
	})
	return err
}

// ApplyConstraints creates a uniqueness constraint on id for every vertex type.
func (l *Neo4jLoader) ApplyConstraints(ctx context.Context, types []string) error {
	session := l.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.DBName})
	defer session.Close(ctx)

	for _, t := range types {
		query := buildConstraintQuery(t)
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx, query, nil)
		})
		if err != nil {
			return fmt.Errorf("failed to apply constraint '%s': %w", query, err)
		}
	}
	return nil
}

// RecordMirror stores when and from where the mirror was last refreshed.
func (l *Neo4jLoader) RecordMirror(ctx context.Context, source string, vertices, edges int) error {
	session := l.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.DBName})
	defer session.Close(ctx)

	query := buildMirrorStateQuery()
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"source":   source,
			"vertices": vertices,
			"edges":    edges,
		})
	})
	return err
}

// Helpers extracted for testing
func groupVerticesByType(vertices []graph.Vertex) map[string][]map[string]any {
	batches := make(map[string][]map[string]any)
	for _, v := range vertices {
		label := vertexLabel(v.Type)
		batches[label] = append(batches[label], map[string]any{
			"id":   string(v.ID),
			"type": v.Type,
		})
	}
	return batches
}

// VertexTypes returns the distinct Neo4j labels the vertices map to.
func VertexTypes(vertices []graph.Vertex) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range vertices {
		label := vertexLabel(v.Type)
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}

func vertexLabel(t string) string {
	if t == "" {
		return "Vertex"
	}
	return t
}

func buildVertexQuery(label string) string {
	return fmt.Sprintf(`
			UNWIND $batch AS row
			MERGE (n:%s {id: row.id})
			SET n.type = row.type
		`, quoteName(label))
}

func groupEdgesByType(edges []graph.Edge) map[string][]map[string]any {
	batches := make(map[string][]map[string]any)
	for _, e := range edges {
		relType := e.Key.Type
		if relType == "" {
			relType = "RELATED_TO"
		}

		row := map[string]any{
			"sourceId": string(e.Key.OutboundID),
			"targetId": string(e.Key.InboundID),
			"weight":   e.Weight,
		}
		batches[relType] = append(batches[relType], row)
	}
	return batches
}

func buildEdgeQuery(relType string) string {
	return fmt.Sprintf(`
			UNWIND $batch AS row
			MATCH (source {id: row.sourceId})
			MATCH (target {id: row.targetId})
			MERGE (source)-[r:%s]->(target)
			SET r.weight = row.weight
		`, quoteName(relType))
}

func buildConstraintQuery(label string) string {
	return fmt.Sprintf("CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", quoteName(label))
}

func buildWipeQuery() string {
	return "MATCH (n) DETACH DELETE n"
}

func buildMirrorStateQuery() string {
	return `
		MERGE (s:MirrorState)
		SET s.source = $source, s.vertices = $vertices, s.edges = $edges, s.updatedAt = datetime()
	`
}

// quoteName backtick-quotes a label or relationship type so server-side type
// names with spaces or punctuation stay valid Cypher.
func quoteName(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "") + "`"
}
