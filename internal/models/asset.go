// internal/models/asset.go
package models

import "time"

// IPAsset is a creative work record, draft or on-chain-registered.
// The id is a generated draft id until promotion, at which point it is
// overwritten with the on-chain IP identifier.
type IPAsset struct {
	ID          string      `json:"id"`
	Status      AssetStatus `json:"status"`
	Name        string      `json:"name,omitempty"`
	Prompt      string      `json:"prompt,omitempty"`
	ImageURI    string      `json:"image_uri,omitempty"`
	MetadataURI string      `json:"metadata_uri,omitempty"`
	TxHash      string      `json:"tx_hash,omitempty"`
	IsRoot      bool        `json:"is_root"`
	CreatedAt   time.Time   `json:"created_at"`

	// Graph context, populated on reads that fetch it.
	Creator     string `json:"creator,omitempty"`
	Owner       string `json:"owner,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	VersionOfID string `json:"version_of_id,omitempty"`
	RemixCount  int64  `json:"remix_count"`
	IsFavorited bool   `json:"is_favorited"`
}

// HistoryEntry is one item of a global or contextual history response.
type HistoryEntry struct {
	ID        string      `json:"id"`
	Status    AssetStatus `json:"status"`
	Label     string      `json:"label"`
	Prompt    string      `json:"prompt,omitempty"`
	ImageURI  string      `json:"image_uri,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// PromotionMode distinguishes the two registration persistence paths.
type PromotionMode int

const (
	// PromotionFromDraft rewrites an existing draft's id in place and
	// flips its status.
	PromotionFromDraft PromotionMode = iota
	// PromotionFresh creates a brand-new REGISTERED node, used when no
	// draft id accompanied the registration.
	PromotionFresh
)

// Promotion carries everything the promotion write needs. Exactly one
// of the two modes applies; DraftID is ignored for PromotionFresh.
type Promotion struct {
	Mode        PromotionMode `json:"mode"`
	DraftID     string        `json:"draft_id,omitempty"`
	OnChainID   string        `json:"on_chain_id"`
	TxHash      string        `json:"tx_hash"`
	MetadataURI string        `json:"metadata_uri"`
	ImageURI    string        `json:"image_uri"`
	Name        string        `json:"name"`
	Creator     string        `json:"creator"`
	ParentID    string        `json:"parent_id,omitempty"`
}
