package knowledge

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Graph bundles the driver behind run-level operations so callers do not
// carry neo4j types around.
type Graph struct {
	driver neo4j.DriverWithContext
}

func NewGraph(driver neo4j.DriverWithContext) *Graph {
	return &Graph{driver: driver}
}

func (g *Graph) SyncRun(ctx context.Context, run Run) error {
	return SyncRun(ctx, g.driver, run)
}

func (g *Graph) DeleteRun(ctx context.Context, runID string) error {
	return DeleteRun(ctx, g.driver, runID)
}

func (g *Graph) RunInsights(ctx context.Context, runID string) (string, error) {
	return RunInsights(ctx, g.driver, runID)
}
