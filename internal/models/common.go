// internal/models/common.go
package models

import "time"

// Enums
type AssetStatus string

const (
	AssetStatusDraft      AssetStatus = "DRAFT"
	AssetStatusRegistered AssetStatus = "REGISTERED"
)

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "ACTIVE"
	ListingStatusSold      ListingStatus = "SOLD"
	ListingStatusCancelled ListingStatus = "CANCELLED"
)

// ExploreFilter is a closed set; query variants are selected from it
// rather than concatenated into Cypher.
type ExploreFilter string

const (
	ExploreFilterAll     ExploreFilter = "ALL"
	ExploreFilterGenesis ExploreFilter = "GENESIS"
	ExploreFilterRemix   ExploreFilter = "REMIX"
	ExploreFilterMine    ExploreFilter = "MINE"
)

func ParseExploreFilter(s string) ExploreFilter {
	switch ExploreFilter(s) {
	case ExploreFilterGenesis, ExploreFilterRemix, ExploreFilterMine:
		return ExploreFilter(s)
	default:
		return ExploreFilterAll
	}
}

type ExploreSort string

const (
	ExploreSortNewest     ExploreSort = "NEWEST"
	ExploreSortOldest     ExploreSort = "OLDEST"
	ExploreSortPopularity ExploreSort = "POPULARITY"
)

func ParseExploreSort(s string) ExploreSort {
	switch ExploreSort(s) {
	case ExploreSortOldest, ExploreSortPopularity:
		return ExploreSort(s)
	default:
		return ExploreSortNewest
	}
}

// RegistrationStep names a recorded step outcome on a registration
// attempt. Steps are recorded in order; a later step implies the
// earlier ones succeeded.
type RegistrationStep string

const (
	StepImagePinned    RegistrationStep = "image_pinned"
	StepMetadataPinned RegistrationStep = "metadata_pinned"
	StepMinted         RegistrationStep = "minted"
	StepSynced         RegistrationStep = "synced"
)

// GraphNode and GraphLink form the node/link structure the explore
// visualization consumes.
type GraphNode struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Prompt     string      `json:"prompt,omitempty"`
	ImageURI   string      `json:"image_uri,omitempty"`
	Status     AssetStatus `json:"status"`
	Creator    string      `json:"creator,omitempty"`
	RemixCount int64       `json:"remix_count"`
	IsRoot     bool        `json:"is_root"`
	CreatedAt  time.Time   `json:"created_at"`
}

type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

type ExploreGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}
