// internal/database/neo4j.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/archelabs/arche-backend/internal/config"
)

// Graph wraps the driver with the target database name. Each call
// opens one session, runs its work, and closes the session; there is
// no application-level locking beyond the store's own transactions.
type Graph struct {
	driver   neo4j.DriverWithContext
	database string
}

func Initialize(ctx context.Context, cfg config.Neo4jConfig) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach neo4j at %s: %w", cfg.URI, err)
	}

	log.Println("Graph database connection established successfully")
	return &Graph{driver: driver, database: cfg.Database}, nil
}

func (g *Graph) Close(ctx context.Context) {
	if err := g.driver.Close(ctx); err != nil {
		log.Printf("Error closing graph database connection: %v", err)
	} else {
		log.Println("Graph database connection closed successfully")
	}
}

func (g *Graph) ExecuteRead(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: g.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (g *Graph) ExecuteWrite(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: g.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

// ApplyConstraints sets up the uniqueness constraints the data model
// relies on. Safe to run at every boot.
func ApplyConstraints(ctx context.Context, g *Graph) error {
	log.Println("Applying graph constraints...")

	constraints := []string{
		"CREATE CONSTRAINT user_address IF NOT EXISTS FOR (u:User) REQUIRE u.address IS UNIQUE",
		"CREATE CONSTRAINT asset_id IF NOT EXISTS FOR (a:IPAsset) REQUIRE a.id IS UNIQUE",
		"CREATE CONSTRAINT listing_id IF NOT EXISTS FOR (l:Listing) REQUIRE l.id IS UNIQUE",
		"CREATE CONSTRAINT registration_id IF NOT EXISTS FOR (r:Registration) REQUIRE r.id IS UNIQUE",
		"CREATE INDEX asset_status IF NOT EXISTS FOR (a:IPAsset) ON (a.status)",
		"CREATE INDEX asset_created_at IF NOT EXISTS FOR (a:IPAsset) ON (a.createdAt)",
		"CREATE INDEX listing_status IF NOT EXISTS FOR (l:Listing) ON (l.status)",
	}

	for _, stmt := range constraints {
		stmt := stmt
		if _, err := g.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		}); err != nil {
			return fmt.Errorf("failed to apply constraint %q: %w", stmt, err)
		}
	}

	log.Println("Graph constraints applied successfully")
	return nil
}

// Record helpers. Cypher results come back as generic values; these
// keep the property plucking in one place.

func StringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func Int64Prop(props map[string]any, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func BoolProp(props map[string]any, key string) bool {
	if v, ok := props[key].(bool); ok {
		return v
	}
	return false
}

func TimeProp(props map[string]any, key string) time.Time {
	switch v := props[key].(type) {
	case time.Time:
		return v
	case dbtype.LocalDateTime:
		return v.Time()
	}
	return time.Time{}
}

// NodeProps unwraps a returned node value to its property map. Plain
// maps pass through, which keeps mapping code testable without a
// running store.
func NodeProps(value any) map[string]any {
	switch v := value.(type) {
	case dbtype.Node:
		return v.Props
	case map[string]any:
		return v
	}
	return nil
}
