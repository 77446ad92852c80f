// internal/models/registration.go
package models

import "time"

// RegistrationAttempt is the saga ledger for one DRAFT -> REGISTERED
// run. The coordinator records each step outcome as it lands, so an
// attempt that minted on-chain but never synced locally is visible to
// the reconciliation sweep.
type RegistrationAttempt struct {
	ID          string     `json:"id"`
	DraftID     string     `json:"draft_id,omitempty"`
	Requester   string     `json:"requester"`
	ParentID    string     `json:"parent_id,omitempty"`
	ImageURI    string     `json:"image_uri,omitempty"`
	MetadataURI string     `json:"metadata_uri,omitempty"`
	ContentHash string     `json:"content_hash,omitempty"`
	OnChainID   string     `json:"on_chain_id,omitempty"`
	TxHash      string     `json:"tx_hash,omitempty"`
	LastStep    string     `json:"last_step,omitempty"`
	FailedStep  string     `json:"failed_step,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RegistrationResult is what a successful registration returns to the
// client.
type RegistrationResult struct {
	IPID        string `json:"ip_id"`
	TxHash      string `json:"tx_hash"`
	MetadataURI string `json:"metadata_uri"`
	ExplorerURL string `json:"explorer_url"`
	Forked      bool   `json:"forked,omitempty"`
}
