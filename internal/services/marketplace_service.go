// internal/services/marketplace_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/archelabs/arche-backend/internal/database"
	"github.com/archelabs/arche-backend/internal/models"
	"github.com/archelabs/arche-backend/internal/utils"
)

// MarketplaceService manages listings and settles purchases. Purchase
// settlement happens off-server; the buyer hands over the payment tx
// hash and the service records the transfer.
type MarketplaceService struct {
	graph *database.Graph
}

type CreateListingRequest struct {
	AssetID  string `json:"asset_id" validate:"required"`
	Price    string `json:"price" validate:"required"`
	Currency string `json:"currency,omitempty"`
}

type BuyListingRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	TxHash    string `json:"tx_hash" validate:"required"`
}

func NewMarketplaceService(graph *database.Graph) *MarketplaceService {
	return &MarketplaceService{graph: graph}
}

// CreateListing puts an asset up for sale. The seller must currently
// own the asset, and an asset carries at most one ACTIVE listing.
func (s *MarketplaceService) CreateListing(ctx context.Context, seller string, req *CreateListingRequest) (*models.Listing, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "IP"
	}

	listingID := "listing-" + uuid.NewString()
	now := time.Now().UTC()

	result, err := s.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (a:IPAsset {id: $assetId})
			OPTIONAL MATCH (u:User {address: $seller})-[o:OWNS]->(a)
			OPTIONAL MATCH (l:Listing {status: 'ACTIVE'})-[:SELLS]->(a)
			RETURN o IS NOT NULL AS owns, l IS NOT NULL AS hasActive`,
			map[string]any{"assetId": req.AssetID, "seller": seller})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, ErrNotFound
		}
		if owns, _ := record.Get("owns"); owns != true {
			return nil, ErrNotOwner
		}
		if hasActive, _ := record.Get("hasActive"); hasActive == true {
			return nil, ErrConflict
		}

		res, err = tx.Run(ctx, `
			MATCH (u:User {address: $seller}), (a:IPAsset {id: $assetId})
			CREATE (l:Listing {
				id: $id,
				price: $price,
				currency: $currency,
				status: 'ACTIVE',
				createdAt: $now
			})
			MERGE (u)-[:LISTED]->(l)
			MERGE (l)-[:SELLS]->(a)
			RETURN l{.*} AS listing, u.address AS seller, a{.*} AS asset`,
			map[string]any{
				"id":       listingID,
				"assetId":  req.AssetID,
				"seller":   seller,
				"price":    req.Price,
				"currency": currency,
				"now":      now,
			})
		if err != nil {
			return nil, err
		}
		record, err = res.Single(ctx)
		if err != nil {
			return nil, err
		}
		listing := listingFromRecordMap(record.AsMap())
		return &listing, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Listing), nil
}

// buyTransferQuery is the settlement statement. Every existing OWNS
// edge is deleted before the buyer's is merged, leaving the asset with
// exactly one owner, and the SOLD flip rides in the same statement.
const buyTransferQuery = `
	MATCH (l:Listing {id: $listingId})-[:SELLS]->(a:IPAsset)
	OPTIONAL MATCH (:User)-[o:OWNS]->(a)
	DELETE o
	WITH l, a
	MERGE (b:User {address: $buyer})
	ON CREATE SET b.createdAt = $now
	MERGE (b)-[:OWNS]->(a)
	MERGE (b)-[:BOUGHT]->(l)
	SET l.status = 'SOLD', l.txHash = $txHash, l.soldAt = $now
	RETURN l{.*} AS listing, b.address AS buyer, a{.*} AS asset`

// BuyListing settles a purchase. Status flip, BOUGHT edge and the OWNS
// reassignment all happen inside one write transaction so ownership
// can never split.
func (s *MarketplaceService) BuyListing(ctx context.Context, buyer string, req *BuyListingRequest) (*models.Listing, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()

	result, err := s.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (seller:User)-[:LISTED]->(l:Listing {id: $listingId})-[:SELLS]->(a:IPAsset)
			RETURN l.status AS status, seller.address AS seller`,
			map[string]any{"listingId": req.ListingID})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, ErrNotFound
		}
		if status, _ := record.Get("status"); status != string(models.ListingStatusActive) {
			return nil, ErrListingNotActive
		}
		if seller, _ := record.Get("seller"); seller == buyer {
			return nil, ErrSelfPurchase
		}

		res, err = tx.Run(ctx, buyTransferQuery,
			map[string]any{
				"listingId": req.ListingID,
				"buyer":     buyer,
				"txHash":    req.TxHash,
				"now":       now,
			})
		if err != nil {
			return nil, err
		}
		record, err = res.Single(ctx)
		if err != nil {
			return nil, err
		}
		listing := listingFromRecordMap(record.AsMap())
		return &listing, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Listing), nil
}

// CancelListing takes an ACTIVE listing down. Only the seller may
// cancel.
func (s *MarketplaceService) CancelListing(ctx context.Context, seller, listingID string) (*models.Listing, error) {
	result, err := s.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (l:Listing {id: $listingId})
			OPTIONAL MATCH (u:User {address: $seller})-[:LISTED]->(l)
			RETURN l.status AS status, u IS NOT NULL AS owned`,
			map[string]any{"listingId": listingID, "seller": seller})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, ErrNotFound
		}
		if owned, _ := record.Get("owned"); owned != true {
			return nil, ErrNotOwner
		}
		if status, _ := record.Get("status"); status != string(models.ListingStatusActive) {
			return nil, ErrListingNotActive
		}

		res, err = tx.Run(ctx, `
			MATCH (u:User {address: $seller})-[:LISTED]->(l:Listing {id: $listingId})-[:SELLS]->(a:IPAsset)
			SET l.status = 'CANCELLED'
			RETURN l{.*} AS listing, u.address AS seller, a{.*} AS asset`,
			map[string]any{"listingId": listingID, "seller": seller})
		if err != nil {
			return nil, err
		}
		record, err = res.Single(ctx)
		if err != nil {
			return nil, err
		}
		listing := listingFromRecordMap(record.AsMap())
		return &listing, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Listing), nil
}

// ExploreListings pages through ACTIVE listings, newest first.
func (s *MarketplaceService) ExploreListings(ctx context.Context, params utils.PaginationParams) ([]models.Listing, int64, error) {
	result, err := s.graph.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (u:User)-[:LISTED]->(l:Listing {status: 'ACTIVE'})-[:SELLS]->(a:IPAsset)
			RETURN l{.*} AS listing, u.address AS seller, a{.*} AS asset
			ORDER BY l.createdAt DESC
			SKIP $skip LIMIT $limit`,
			map[string]any{"skip": params.Offset(), "limit": params.Limit})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		listings := make([]models.Listing, 0, len(records))
		for _, record := range records {
			listings = append(listings, listingFromRecordMap(record.AsMap()))
		}

		res, err = tx.Run(ctx, `
			MATCH (l:Listing {status: 'ACTIVE'})
			RETURN count(l) AS total`, nil)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		total, _ := record.Get("total")

		return struct {
			listings []models.Listing
			total    int64
		}{listings, total.(int64)}, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to explore listings: %w", err)
	}

	out := result.(struct {
		listings []models.Listing
		total    int64
	})
	return out.listings, out.total, nil
}

// MyListings returns all of a seller's listings regardless of status.
func (s *MarketplaceService) MyListings(ctx context.Context, seller string) ([]models.Listing, error) {
	result, err := s.graph.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (u:User {address: $seller})-[:LISTED]->(l:Listing)-[:SELLS]->(a:IPAsset)
			OPTIONAL MATCH (b:User)-[:BOUGHT]->(l)
			RETURN l{.*} AS listing, u.address AS seller, b.address AS buyer, a{.*} AS asset
			ORDER BY l.createdAt DESC`,
			map[string]any{"seller": seller})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		listings := make([]models.Listing, 0, len(records))
		for _, record := range records {
			listings = append(listings, listingFromRecordMap(record.AsMap()))
		}
		return listings, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	return result.([]models.Listing), nil
}

func listingFromRecordMap(record map[string]any) models.Listing {
	props := database.NodeProps(record["listing"])

	listing := models.Listing{
		ID:        database.StringProp(props, "id"),
		Price:     database.StringProp(props, "price"),
		Currency:  database.StringProp(props, "currency"),
		Status:    models.ListingStatus(database.StringProp(props, "status")),
		TxHash:    database.StringProp(props, "txHash"),
		CreatedAt: database.TimeProp(props, "createdAt"),
		Seller:    database.StringProp(record, "seller"),
		Buyer:     database.StringProp(record, "buyer"),
	}

	if soldAt := database.TimeProp(props, "soldAt"); !soldAt.IsZero() {
		listing.SoldAt = &soldAt
	}

	if assetValue, ok := record["asset"]; ok && assetValue != nil {
		asset := assetFromProps(database.NodeProps(assetValue))
		listing.Asset = &asset
	}

	return listing
}
