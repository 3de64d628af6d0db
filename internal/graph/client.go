// Package graph owns everything that touches the graph store: the driver
// wrapper, generated upsert statements, and the retrying batch writer.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/medgraph/loader/internal/config"
	"github.com/medgraph/loader/internal/schema"
)

// Client wraps the Neo4j driver and provides graph operations.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewClient creates a new Neo4j client from configuration.
func NewClient(cfg config.Neo4jConfig) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Client{driver: driver, database: cfg.Database}, nil
}

// Verify checks connectivity to Neo4j.
func (c *Client) Verify(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Close releases the Neo4j driver resources.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Session returns a new write session. Sessions are cheap; the writer opens
// one per attempt so none is held across a backoff sleep.
func (c *Client) Session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
}

// EnsureConstraints creates a uniqueness constraint for every label the
// catalog merges on. Constraints must exist before the first batch lands or
// MERGE throughput collapses on large files.
func (c *Client) EnsureConstraints(ctx context.Context, catalog []schema.Kind) error {
	session := c.Session(ctx)
	defer session.Close(ctx)
	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, t := range ConstraintTargets(catalog) {
			if _, err := tx.Run(ctx, ConstraintQuery(t[0], t[1]), nil); err != nil {
				return struct{}{}, fmt.Errorf("create %s.%s constraint: %w", t[0], t[1], err)
			}
		}
		return struct{}{}, nil
	})
	return err
}
