// internal/models/listing.go
package models

import "time"

// Listing is a marketplace entry selling a registered asset. It is
// connected to its seller via LISTED, to the asset via SELLS, and to
// the eventual buyer via BOUGHT.
type Listing struct {
	ID        string        `json:"id"`
	Price     string        `json:"price"`
	Currency  string        `json:"currency"`
	Status    ListingStatus `json:"status"`
	TxHash    string        `json:"tx_hash,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	SoldAt    *time.Time    `json:"sold_at,omitempty"`

	Seller string   `json:"seller,omitempty"`
	Buyer  string   `json:"buyer,omitempty"`
	Asset  *IPAsset `json:"asset,omitempty"`
}
