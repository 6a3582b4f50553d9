// Package knowledge mirrors analysis runs into Neo4j. The graph is an
// optional side channel: a nil driver disables it without affecting the
// pipeline or the chat service.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Run is one consultation with its analyzed documents.
type Run struct {
	ID         string
	Documents  []Document
	Categories []Category
}

// Document is one tender file node.
type Document struct {
	Name          string
	TypeLabel     string
	ContentLength int
	HasAnalysis   bool
}

// Category names a constraint bucket a document contributed to.
type Category struct {
	Name         string
	DocumentName string
}

// SyncRun replaces the graph view of a run with the given documents and
// category links. Re-running an analysis rebuilds the subgraph from scratch.
func SyncRun(ctx context.Context, driver neo4j.DriverWithContext, run Run) error {
	if driver == nil {
		return fmt.Errorf("neo4j driver is nil")
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (r:Run {id: $id})
			SET r.updated_at = datetime()
		`, map[string]any{"id": run.ID}); err != nil {
			return nil, fmt.Errorf("upsert run node: %w", err)
		}

		if _, err := tx.Run(ctx, `
			MATCH (r:Run {id: $id})-[:HAS_DOCUMENT]->(d:Document)
			DETACH DELETE d
		`, map[string]any{"id": run.ID}); err != nil {
			return nil, fmt.Errorf("clear existing documents: %w", err)
		}

		for _, doc := range run.Documents {
			if _, err := tx.Run(ctx, `
				MATCH (r:Run {id: $run_id})
				CREATE (d:Document {
					name: $name,
					type: $type,
					content_length: $content_length,
					has_analysis: $has_analysis
				})
				CREATE (r)-[:HAS_DOCUMENT]->(d)
			`, map[string]any{
				"run_id":         run.ID,
				"name":           doc.Name,
				"type":           doc.TypeLabel,
				"content_length": doc.ContentLength,
				"has_analysis":   doc.HasAnalysis,
			}); err != nil {
				return nil, fmt.Errorf("create document node: %w", err)
			}
		}

		for _, cat := range run.Categories {
			if cat.Name == "" {
				continue
			}
			if _, err := tx.Run(ctx, `
				MATCH (r:Run {id: $run_id})-[:HAS_DOCUMENT]->(d:Document {name: $doc_name})
				MERGE (c:Category {name: $cat_name})
				MERGE (d)-[:HAS_CATEGORY]->(c)
			`, map[string]any{
				"run_id":   run.ID,
				"doc_name": cat.DocumentName,
				"cat_name": cat.Name,
			}); err != nil {
				return nil, fmt.Errorf("link category: %w", err)
			}
		}

		return nil, nil
	})

	if err == nil {
		if _, cleanupErr := session.Run(ctx, `
			MATCH (c:Category)
			WHERE NOT (c)<-[:HAS_CATEGORY]-(:Document)
			DELETE c
		`, nil); cleanupErr != nil {
			err = cleanupErr
		}
	}

	return err
}

// DeleteRun removes the run subgraph and orphaned categories.
func DeleteRun(ctx context.Context, driver neo4j.DriverWithContext, runID string) error {
	if driver == nil {
		return fmt.Errorf("neo4j driver is nil")
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (r:Run {id: $id})
			OPTIONAL MATCH (r)-[:HAS_DOCUMENT]->(d:Document)
			DETACH DELETE r, d
		`, map[string]any{"id": runID}); err != nil {
			return nil, fmt.Errorf("delete run subgraph: %w", err)
		}
		if _, err := tx.Run(ctx, `
			MATCH (c:Category)
			WHERE NOT (c)<-[:HAS_CATEGORY]-(:Document)
			DELETE c
		`, nil); err != nil {
			return nil, fmt.Errorf("cleanup categories: %w", err)
		}
		return nil, nil
	})

	return err
}

// RunInsights summarizes the run subgraph for chat prompts: documents with
// their types and the constraint categories they feed.
func RunInsights(ctx context.Context, driver neo4j.DriverWithContext, runID string) (string, error) {
	if driver == nil {
		return "", fmt.Errorf("neo4j driver is nil")
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
			MATCH (r:Run {id: $id})-[:HAS_DOCUMENT]->(d:Document)
			OPTIONAL MATCH (d)-[:HAS_CATEGORY]->(c:Category)
			RETURN d.name AS name, d.type AS type, collect(c.name) AS categories
			ORDER BY name
		`, map[string]any{"id": runID})
		if err != nil {
			return nil, fmt.Errorf("query run insights: %w", err)
		}

		var sb strings.Builder
		for records.Next(ctx) {
			rec := records.Record()
			name, _ := rec.Get("name")
			docType, _ := rec.Get("type")
			rawCats, _ := rec.Get("categories")

			cats := make([]string, 0)
			if list, ok := rawCats.([]any); ok {
				for _, item := range list {
					if s, ok := item.(string); ok && s != "" {
						cats = append(cats, s)
					}
				}
			}

			fmt.Fprintf(&sb, "- %v (%v)", name, docType)
			if len(cats) > 0 {
				fmt.Fprintf(&sb, " : %s", strings.Join(cats, ", "))
			}
			sb.WriteString("\n")
		}
		if err := records.Err(); err != nil {
			return nil, err
		}
		return sb.String(), nil
	})
	if err != nil {
		return "", err
	}

	text, _ := result.(string)
	return strings.TrimRight(text, "\n"), nil
}
