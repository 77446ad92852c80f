// internal/services/lineage_service_test.go
package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/archelabs/arche-backend/internal/models"
)

func TestBuildExploreQueryFilters(t *testing.T) {
	cases := []struct {
		filter   models.ExploreFilter
		contains string
		absent   string
	}{
		{models.ExploreFilterAll, "MATCH (a:IPAsset {status: 'REGISTERED'})", "REMIXED_FROM]->(:IPAsset)"},
		{models.ExploreFilterGenesis, "AND NOT (a)-[:REMIXED_FROM]->(:IPAsset)", "$owner"},
		{models.ExploreFilterRemix, "AND (a)-[:REMIXED_FROM]->(:IPAsset)", "AND NOT"},
		{models.ExploreFilterMine, "[:OWNS]->(a)", "AND NOT"},
	}

	for _, tc := range cases {
		t.Run(string(tc.filter), func(t *testing.T) {
			query, args := buildExploreQuery(ExploreParams{Filter: tc.filter, Owner: "0xabc"})

			assert.Contains(t, query, tc.contains)
			assert.NotContains(t, query, tc.absent)
			assert.Contains(t, query, "LIMIT $limit")
			assert.Equal(t, exploreResultCap, args["limit"])

			if tc.filter == models.ExploreFilterMine {
				assert.Equal(t, "0xabc", args["owner"])
			} else {
				assert.NotContains(t, args, "owner")
			}
		})
	}
}

func TestBuildExploreQuerySorts(t *testing.T) {
	cases := []struct {
		sort    models.ExploreSort
		orderBy string
	}{
		{models.ExploreSortNewest, "ORDER BY a.createdAt DESC"},
		{models.ExploreSortOldest, "ORDER BY a.createdAt ASC"},
		{models.ExploreSortPopularity, "ORDER BY remixCount DESC, a.createdAt DESC"},
	}

	for _, tc := range cases {
		t.Run(string(tc.sort), func(t *testing.T) {
			query, _ := buildExploreQuery(ExploreParams{Sort: tc.sort})
			assert.Contains(t, query, tc.orderBy)
		})
	}
}

func TestBuildExploreQueryNeverInlinesInput(t *testing.T) {
	query, args := buildExploreQuery(ExploreParams{
		Query:  "  Sunset') DETACH DELETE (n  ",
		Filter: models.ExploreFilterMine,
		Owner:  "0xDEF",
	})

	// User input travels only through parameters
	assert.NotContains(t, query, "Sunset")
	assert.NotContains(t, query, "0xDEF")
	assert.Equal(t, strings.ToLower(strings.TrimSpace("  Sunset') DETACH DELETE (n  ")), args["q"])
}

func TestHistoryEntryFromProps(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	entry := historyEntryFromProps(map[string]any{
		"id":        "0x01",
		"status":    "REGISTERED",
		"name":      "Dawn",
		"prompt":    "a dawn scene",
		"imageUri":  "ipfs://Qm123",
		"createdAt": created,
	})

	assert.Equal(t, "0x01", entry.ID)
	assert.Equal(t, models.AssetStatusRegistered, entry.Status)
	assert.Equal(t, "Dawn", entry.Label)
	assert.Equal(t, created, entry.CreatedAt)
}

func TestHistoryEntryLabelFallsBackToPrompt(t *testing.T) {
	entry := historyEntryFromProps(map[string]any{
		"id":     "draft-1",
		"status": "DRAFT",
		"prompt": "a very long prompt that keeps going well past the cutoff point",
	})

	assert.True(t, strings.HasPrefix(entry.Label, "a very long prompt"))
	assert.True(t, strings.HasSuffix(entry.Label, "…"))
}

func TestGraphNodeFromRecordMap(t *testing.T) {
	node := graphNodeFromRecordMap(map[string]any{
		"asset": map[string]any{
			"id":     "0x02",
			"status": "REGISTERED",
			"name":   "Ridge",
			"isRoot": true,
		},
		"creator":    "0xCreator",
		"remixCount": int64(4),
	})

	assert.Equal(t, "0x02", node.ID)
	assert.Equal(t, "Ridge", node.Label)
	assert.Equal(t, "0xCreator", node.Creator)
	assert.Equal(t, int64(4), node.RemixCount)
	assert.True(t, node.IsRoot)
}

func TestGlobalHistoryQueryKeepsOnlyHeads(t *testing.T) {
	assert.Contains(t, globalHistoryQuery, "NOT EXISTS { (u)-[:CREATED]->(:IPAsset)-[:VERSION_OF]->(a) }")
	assert.Contains(t, globalHistoryQuery, "(u:User {address: $address})-[:CREATED]->(a:IPAsset)")
	assert.Contains(t, globalHistoryQuery, "ORDER BY a.createdAt DESC")
}

func TestContextualHistoryQueryScopesToRequester(t *testing.T) {
	assert.Contains(t, contextualHistoryQuery, "(seed)-[:VERSION_OF*0..]-(v:IPAsset)")
	assert.Contains(t, contextualHistoryQuery, "(:User {address: $address})-[:CREATED]->(v)")
	assert.Contains(t, contextualHistoryQuery, "WITH DISTINCT v")
	assert.Contains(t, contextualHistoryQuery, "ORDER BY v.createdAt DESC")
}
