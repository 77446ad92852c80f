// internal/models/common_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseExploreFilter(t *testing.T) {
	assert.Equal(t, ExploreFilterAll, ParseExploreFilter(""))
	assert.Equal(t, ExploreFilterAll, ParseExploreFilter("ALL"))
	assert.Equal(t, ExploreFilterAll, ParseExploreFilter("bogus"))
	assert.Equal(t, ExploreFilterGenesis, ParseExploreFilter("GENESIS"))
	assert.Equal(t, ExploreFilterRemix, ParseExploreFilter("REMIX"))
	assert.Equal(t, ExploreFilterMine, ParseExploreFilter("MINE"))
	// Enum values are case sensitive
	assert.Equal(t, ExploreFilterAll, ParseExploreFilter("mine"))
}

func TestParseExploreSort(t *testing.T) {
	assert.Equal(t, ExploreSortNewest, ParseExploreSort(""))
	assert.Equal(t, ExploreSortNewest, ParseExploreSort("NEWEST"))
	assert.Equal(t, ExploreSortNewest, ParseExploreSort("bogus"))
	assert.Equal(t, ExploreSortOldest, ParseExploreSort("OLDEST"))
	assert.Equal(t, ExploreSortPopularity, ParseExploreSort("POPULARITY"))
}
