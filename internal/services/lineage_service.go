// internal/services/lineage_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/archelabs/arche-backend/internal/database"
	"github.com/archelabs/arche-backend/internal/models"
)

// LineageService answers provenance questions: which assets are the
// heads of a wallet's creative threads, what a version chain looks
// like, and the explore graph.
type LineageService struct {
	graph *database.Graph
}

const exploreResultCap = 100

// globalHistoryQuery returns only head assets: anything another asset
// of the same wallet points at via VERSION_OF is superseded and
// filtered out.
const globalHistoryQuery = `
	MATCH (u:User {address: $address})-[:CREATED]->(a:IPAsset)
	WHERE NOT EXISTS { (u)-[:CREATED]->(:IPAsset)-[:VERSION_OF]->(a) }
	RETURN a{.*} AS asset
	ORDER BY a.createdAt DESC`

// contextualHistoryQuery walks the undirected VERSION_OF closure from
// the seed, keeping only nodes the requesting wallet created.
const contextualHistoryQuery = `
	MATCH (seed:IPAsset {id: $assetId})
	MATCH (seed)-[:VERSION_OF*0..]-(v:IPAsset)
	MATCH (:User {address: $address})-[:CREATED]->(v)
	WITH DISTINCT v
	ORDER BY v.createdAt DESC
	RETURN v{.*} AS asset`

type ExploreParams struct {
	Query  string
	Filter models.ExploreFilter
	Sort   models.ExploreSort
	Owner  string
}

func NewLineageService(graph *database.Graph) *LineageService {
	return &LineageService{graph: graph}
}

// GlobalHistory returns only head assets: those created by the wallet
// that no other asset of the same wallet supersedes via VERSION_OF.
// Newest first.
func (s *LineageService) GlobalHistory(ctx context.Context, address string) ([]models.HistoryEntry, error) {
	result, err := s.graph.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, globalHistoryQuery,
			map[string]any{"address": address})
		if err != nil {
			return nil, err
		}
		return collectHistory(ctx, res)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve global history: %w", err)
	}

	return result.([]models.HistoryEntry), nil
}

// ContextualHistory walks the undirected VERSION_OF closure from the
// given asset, restricted to assets the requesting wallet created, and
// returns the whole chain newest first. A missing seed yields an empty
// chain, not an error.
func (s *LineageService) ContextualHistory(ctx context.Context, address, assetID string) ([]models.HistoryEntry, error) {
	result, err := s.graph.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, contextualHistoryQuery,
			map[string]any{"address": address, "assetId": assetID})
		if err != nil {
			return nil, err
		}
		return collectHistory(ctx, res)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contextual history: %w", err)
	}

	return result.([]models.HistoryEntry), nil
}

// Explore returns the node/link graph for the gallery view, capped at
// 100 nodes. Filter and sort are closed enums; every combination maps
// to one parameterized query variant.
func (s *LineageService) Explore(ctx context.Context, params ExploreParams) (*models.ExploreGraph, error) {
	query, args := buildExploreQuery(params)

	result, err := s.graph.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, args)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		graph := &models.ExploreGraph{
			Nodes: make([]models.GraphNode, 0, len(records)),
			Links: []models.GraphLink{},
		}
		ids := make([]string, 0, len(records))
		for _, record := range records {
			node := graphNodeFromRecordMap(record.AsMap())
			graph.Nodes = append(graph.Nodes, node)
			ids = append(ids, node.ID)
		}

		if len(ids) == 0 {
			return graph, nil
		}

		res, err = tx.Run(ctx, `
			MATCH (a:IPAsset)-[r:REMIXED_FROM|DERIVED_FROM|VERSION_OF]->(b:IPAsset)
			WHERE a.id IN $ids AND b.id IN $ids
			RETURN a.id AS source, b.id AS target, type(r) AS kind`,
			map[string]any{"ids": ids})
		if err != nil {
			return nil, err
		}
		linkRecords, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, record := range linkRecords {
			m := record.AsMap()
			graph.Links = append(graph.Links, models.GraphLink{
				Source: database.StringProp(m, "source"),
				Target: database.StringProp(m, "target"),
				Kind:   database.StringProp(m, "kind"),
			})
		}

		return graph, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to explore graph: %w", err)
	}

	return result.(*models.ExploreGraph), nil
}

// buildExploreQuery assembles the variant for one (filter, sort) pair.
// Only whole clauses chosen by enum are joined; user input is always a
// parameter.
func buildExploreQuery(p ExploreParams) (string, map[string]any) {
	clauses := []string{
		"MATCH (a:IPAsset {status: 'REGISTERED'})",
		"WHERE ($q = '' OR toLower(a.prompt) CONTAINS $q OR toLower(a.name) CONTAINS $q)",
	}

	args := map[string]any{
		"q":     strings.ToLower(strings.TrimSpace(p.Query)),
		"limit": exploreResultCap,
	}

	switch p.Filter {
	case models.ExploreFilterGenesis:
		clauses = append(clauses, "AND NOT (a)-[:REMIXED_FROM]->(:IPAsset)")
	case models.ExploreFilterRemix:
		clauses = append(clauses, "AND (a)-[:REMIXED_FROM]->(:IPAsset)")
	case models.ExploreFilterMine:
		clauses = append(clauses, "AND EXISTS { (:User {address: $owner})-[:OWNS]->(a) }")
		args["owner"] = p.Owner
	}

	clauses = append(clauses,
		"WITH a, COUNT { (a)<-[:REMIXED_FROM]-() } AS remixCount",
		"OPTIONAL MATCH (c:User)-[:CREATED]->(a)",
		"RETURN a{.*} AS asset, c.address AS creator, remixCount",
	)

	switch p.Sort {
	case models.ExploreSortOldest:
		clauses = append(clauses, "ORDER BY a.createdAt ASC")
	case models.ExploreSortPopularity:
		clauses = append(clauses, "ORDER BY remixCount DESC, a.createdAt DESC")
	default:
		clauses = append(clauses, "ORDER BY a.createdAt DESC")
	}

	clauses = append(clauses, "LIMIT $limit")
	return strings.Join(clauses, "\n"), args
}

func collectHistory(ctx context.Context, res neo4j.ResultWithContext) ([]models.HistoryEntry, error) {
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]models.HistoryEntry, 0, len(records))
	for _, record := range records {
		value, _ := record.Get("asset")
		entries = append(entries, historyEntryFromProps(database.NodeProps(value)))
	}
	return entries, nil
}

func historyEntryFromProps(props map[string]any) models.HistoryEntry {
	label := database.StringProp(props, "name")
	if label == "" {
		label = draftLabel(database.StringProp(props, "prompt"))
	}
	return models.HistoryEntry{
		ID:        database.StringProp(props, "id"),
		Status:    models.AssetStatus(database.StringProp(props, "status")),
		Label:     label,
		Prompt:    database.StringProp(props, "prompt"),
		ImageURI:  database.StringProp(props, "imageUri"),
		CreatedAt: database.TimeProp(props, "createdAt"),
	}
}

func graphNodeFromRecordMap(record map[string]any) models.GraphNode {
	props := database.NodeProps(record["asset"])
	label := database.StringProp(props, "name")
	if label == "" {
		label = draftLabel(database.StringProp(props, "prompt"))
	}
	return models.GraphNode{
		ID:         database.StringProp(props, "id"),
		Label:      label,
		Prompt:     database.StringProp(props, "prompt"),
		ImageURI:   database.StringProp(props, "imageUri"),
		Status:     models.AssetStatus(database.StringProp(props, "status")),
		Creator:    database.StringProp(record, "creator"),
		RemixCount: database.Int64Prop(record, "remixCount"),
		IsRoot:     database.BoolProp(props, "isRoot"),
		CreatedAt:  database.TimeProp(props, "createdAt"),
	}
}
