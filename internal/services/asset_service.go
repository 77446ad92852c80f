// internal/services/asset_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/archelabs/arche-backend/internal/database"
	"github.com/archelabs/arche-backend/internal/models"
	"github.com/archelabs/arche-backend/internal/utils"
)

// AssetService persists IPAsset, User and relationship records. It is
// the only code that writes the provenance edges.
type AssetService struct {
	graph *database.Graph
}

type CreateDraftRequest struct {
	Prompt      string `json:"prompt" validate:"required,min=1,max=4000"`
	ImageURI    string `json:"image_uri" validate:"required"`
	Name        string `json:"name,omitempty" validate:"omitempty,max=255"`
	ParentIPID  string `json:"parent_ip_id,omitempty"`
	VersionOfID string `json:"version_of_id,omitempty"`
}

type ListAssetsParams struct {
	Status        *models.AssetStatus
	FavoritesOnly bool
	utils.PaginationParams
}

func NewAssetService(graph *database.Graph) *AssetService {
	return &AssetService{graph: graph}
}

// CreateDraft stores a new DRAFT asset for the given wallet, merging
// the user node on first interaction. Parent and version links use
// match-or-noop semantics: when the target id does not exist the
// relationship is silently skipped.
func (s *AssetService) CreateDraft(ctx context.Context, address string, req *CreateDraftRequest) (string, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	draftID := "draft-" + uuid.NewString()
	now := time.Now().UTC()

	name := req.Name
	if name == "" {
		name = draftLabel(req.Prompt)
	}

	_, err := s.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (u:User {address: $address})
			ON CREATE SET u.createdAt = $now
			CREATE (a:IPAsset {
				id: $id,
				status: 'DRAFT',
				prompt: $prompt,
				imageUri: $imageUri,
				name: $name,
				isRoot: $isRoot,
				createdAt: $now
			})
			MERGE (u)-[:CREATED]->(a)
			MERGE (u)-[:OWNS]->(a)`,
			map[string]any{
				"address":  address,
				"id":       draftID,
				"prompt":   req.Prompt,
				"imageUri": req.ImageURI,
				"name":     name,
				"isRoot":   req.ParentIPID == "",
				"now":      now,
			})
		if err != nil {
			return nil, err
		}

		if req.ParentIPID != "" {
			// Zero rows when the parent is absent; the link is skipped.
			_, err = tx.Run(ctx, `
				MATCH (a:IPAsset {id: $id})
				MATCH (p:IPAsset {id: $parentId})
				MERGE (a)-[:REMIXED_FROM]->(p)`,
				map[string]any{"id": draftID, "parentId": req.ParentIPID})
			if err != nil {
				return nil, err
			}
		}

		if req.VersionOfID != "" {
			_, err = tx.Run(ctx, `
				MATCH (a:IPAsset {id: $id})
				MATCH (v:IPAsset {id: $versionOfId})
				MERGE (a)-[:VERSION_OF]->(v)`,
				map[string]any{"id": draftID, "versionOfId": req.VersionOfID})
			if err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}

	return draftID, nil
}

// deleteDraftQuery deletes only when the requester created the asset
// and it is still a DRAFT. Registered assets never match. The preview
// URI is captured before the delete so the caller can clean up the
// stored image.
const deleteDraftQuery = `
	MATCH (u:User {address: $address})-[:CREATED]->(a:IPAsset {id: $id})
	WHERE a.status = 'DRAFT'
	WITH a, a.imageUri AS imageUri
	DETACH DELETE a
	RETURN imageUri`

// DeleteDraft removes a draft iff it is still a DRAFT and the
// requester created it. Registered assets are never deleted. On
// success it returns the draft's preview URI for storage cleanup.
func (s *AssetService) DeleteDraft(ctx context.Context, id, address string) (bool, string, error) {
	result, err := s.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, deleteDraftQuery,
			map[string]any{"id": id, "address": address})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return draftDeletion{}, nil
		}
		uri, _ := records[0].Get("imageUri")
		uriStr, _ := uri.(string)
		return draftDeletion{deleted: true, imageURI: uriStr}, nil
	})
	if err != nil {
		return false, "", fmt.Errorf("failed to delete draft: %w", err)
	}

	deletion := result.(draftDeletion)
	return deletion.deleted, deletion.imageURI, nil
}

type draftDeletion struct {
	deleted  bool
	imageURI string
}

// Promote applies the DRAFT -> REGISTERED transition. FromDraft
// rewrites the draft's id with the on-chain id in place; Fresh creates
// a brand-new REGISTERED node and links DERIVED_FROM to the parent
// when one is given. The dual path mirrors how registrations arrive
// with or without a studio draft behind them.
func (s *AssetService) Promote(ctx context.Context, p models.Promotion) (*models.IPAsset, error) {
	now := time.Now().UTC()

	result, err := s.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		switch p.Mode {
		case models.PromotionFromDraft:
			return s.promoteFromDraft(ctx, tx, p, now)
		case models.PromotionFresh:
			return s.promoteFresh(ctx, tx, p, now)
		default:
			return nil, fmt.Errorf("unknown promotion mode %d", p.Mode)
		}
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.IPAsset), nil
}

func (s *AssetService) promoteFromDraft(ctx context.Context, tx neo4j.ManagedTransaction, p models.Promotion, now time.Time) (*models.IPAsset, error) {
	res, err := tx.Run(ctx, `
		MATCH (a:IPAsset {id: $draftId})
		RETURN a.status AS status`,
		map[string]any{"draftId": p.DraftID})
	if err != nil {
		return nil, err
	}
	record, err := res.Single(ctx)
	if err != nil {
		return nil, ErrNotFound
	}
	if status, _ := record.Get("status"); status != string(models.AssetStatusDraft) {
		return nil, ErrAlreadyRegistered
	}

	res, err = tx.Run(ctx, `
		MATCH (a:IPAsset {id: $draftId})
		SET a.id = $onChainId,
			a.status = 'REGISTERED',
			a.txHash = $txHash,
			a.metadataUri = $metadataUri,
			a.imageUri = CASE WHEN $imageUri = '' THEN a.imageUri ELSE $imageUri END,
			a.name = CASE WHEN $name = '' THEN a.name ELSE $name END,
			a.registeredAt = $now
		RETURN a{.*} AS asset`,
		map[string]any{
			"draftId":     p.DraftID,
			"onChainId":   p.OnChainID,
			"txHash":      p.TxHash,
			"metadataUri": p.MetadataURI,
			"imageUri":    p.ImageURI,
			"name":        p.Name,
			"now":         now,
		})
	if err != nil {
		return nil, err
	}
	record, err = res.Single(ctx)
	if err != nil {
		return nil, err
	}

	asset, _ := record.Get("asset")
	mapped := assetFromProps(database.NodeProps(asset))
	return &mapped, nil
}

func (s *AssetService) promoteFresh(ctx context.Context, tx neo4j.ManagedTransaction, p models.Promotion, now time.Time) (*models.IPAsset, error) {
	res, err := tx.Run(ctx, `
		MERGE (u:User {address: $creator})
		ON CREATE SET u.createdAt = $now
		CREATE (a:IPAsset {
			id: $onChainId,
			status: 'REGISTERED',
			name: $name,
			imageUri: $imageUri,
			metadataUri: $metadataUri,
			txHash: $txHash,
			isRoot: $isRoot,
			createdAt: $now,
			registeredAt: $now
		})
		MERGE (u)-[:CREATED]->(a)
		MERGE (u)-[:OWNS]->(a)
		RETURN a{.*} AS asset`,
		map[string]any{
			"creator":     p.Creator,
			"onChainId":   p.OnChainID,
			"name":        p.Name,
			"imageUri":    p.ImageURI,
			"metadataUri": p.MetadataURI,
			"txHash":      p.TxHash,
			"isRoot":      p.ParentID == "",
			"now":         now,
		})
	if err != nil {
		return nil, err
	}
	record, err := res.Single(ctx)
	if err != nil {
		return nil, err
	}

	if p.ParentID != "" {
		// Same match-or-noop behavior as draft creation.
		_, err = tx.Run(ctx, `
			MATCH (a:IPAsset {id: $onChainId})
			MATCH (p:IPAsset {id: $parentId})
			MERGE (a)-[:DERIVED_FROM]->(p)`,
			map[string]any{"onChainId": p.OnChainID, "parentId": p.ParentID})
		if err != nil {
			return nil, err
		}
	}

	asset, _ := record.Get("asset")
	mapped := assetFromProps(database.NodeProps(asset))
	return &mapped, nil
}

// ListUserAssets pages through a wallet's created assets, or its
// favorites when FavoritesOnly is set, newest first, with the
// favorite flag computed per item.
func (s *AssetService) ListUserAssets(ctx context.Context, address string, params ListAssetsParams) ([]models.IPAsset, int64, error) {
	match := "MATCH (u:User {address: $address})-[:CREATED]->(a:IPAsset)"
	favorited := "EXISTS { (u)-[:FAVORITED]->(a) }"
	if params.FavoritesOnly {
		match = "MATCH (u:User {address: $address})-[:FAVORITED]->(a:IPAsset)"
		favorited = "true"
	}

	var status any
	if params.Status != nil {
		status = string(*params.Status)
	}

	args := map[string]any{
		"address": address,
		"status":  status,
		"skip":    params.Offset(),
		"limit":   params.Limit,
	}

	listQuery := match + `
		WHERE $status IS NULL OR a.status = $status
		RETURN a{.*} AS asset,
			` + favorited + ` AS favorited,
			COUNT { (a)<-[:REMIXED_FROM]-() } AS remixCount
		ORDER BY a.createdAt DESC
		SKIP $skip LIMIT $limit`

	countQuery := match + `
		WHERE $status IS NULL OR a.status = $status
		RETURN count(a) AS total`

	result, err := s.graph.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, listQuery, args)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		assets := make([]models.IPAsset, 0, len(records))
		for _, record := range records {
			assets = append(assets, assetFromRecordMap(record.AsMap()))
		}

		res, err = tx.Run(ctx, countQuery, args)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		total, _ := record.Get("total")

		return struct {
			assets []models.IPAsset
			total  int64
		}{assets, total.(int64)}, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assets: %w", err)
	}

	out := result.(struct {
		assets []models.IPAsset
		total  int64
	})
	return out.assets, out.total, nil
}

// GetAsset fetches one asset with its graph context. The viewer, when
// known, determines the favorite flag.
func (s *AssetService) GetAsset(ctx context.Context, id, viewer string) (*models.IPAsset, error) {
	var viewerParam any
	if viewer != "" {
		viewerParam = viewer
	}

	result, err := s.graph.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (a:IPAsset {id: $id})
			OPTIONAL MATCH (c:User)-[:CREATED]->(a)
			OPTIONAL MATCH (o:User)-[:OWNS]->(a)
			OPTIONAL MATCH (a)-[:REMIXED_FROM|DERIVED_FROM]->(p:IPAsset)
			OPTIONAL MATCH (a)-[:VERSION_OF]->(v:IPAsset)
			RETURN a{.*} AS asset,
				c.address AS creator,
				o.address AS owner,
				p.id AS parentId,
				v.id AS versionOfId,
				COUNT { (a)<-[:REMIXED_FROM]-() } AS remixCount,
				CASE WHEN $viewer IS NULL THEN false
					ELSE EXISTS { (:User {address: $viewer})-[:FAVORITED]->(a) }
				END AS favorited`,
			map[string]any{"id": id, "viewer": viewerParam})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, ErrNotFound
		}
		asset := assetFromRecordMap(record.AsMap())
		return &asset, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.IPAsset), nil
}

// ToggleFavorite flips the FAVORITED edge and reports the new state.
func (s *AssetService) ToggleFavorite(ctx context.Context, address, assetID string) (bool, error) {
	result, err := s.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MERGE (u:User {address: $address})
			ON CREATE SET u.createdAt = $now
			WITH u
			MATCH (a:IPAsset {id: $assetId})
			OPTIONAL MATCH (u)-[f:FAVORITED]->(a)
			FOREACH (_ IN CASE WHEN f IS NULL THEN [1] ELSE [] END | MERGE (u)-[:FAVORITED]->(a))
			FOREACH (_ IN CASE WHEN f IS NULL THEN [] ELSE [1] END | DELETE f)
			RETURN f IS NULL AS favorited`,
			map[string]any{
				"address": address,
				"assetId": assetID,
				"now":     time.Now().UTC(),
			})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, ErrNotFound
		}
		favorited, _ := record.Get("favorited")
		return favorited.(bool), nil
	})
	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

// Mapping helpers. Pure over property maps so they are testable
// without a running store.

func assetFromProps(props map[string]any) models.IPAsset {
	return models.IPAsset{
		ID:          database.StringProp(props, "id"),
		Status:      models.AssetStatus(database.StringProp(props, "status")),
		Name:        database.StringProp(props, "name"),
		Prompt:      database.StringProp(props, "prompt"),
		ImageURI:    database.StringProp(props, "imageUri"),
		MetadataURI: database.StringProp(props, "metadataUri"),
		TxHash:      database.StringProp(props, "txHash"),
		IsRoot:      database.BoolProp(props, "isRoot"),
		CreatedAt:   database.TimeProp(props, "createdAt"),
	}
}

func assetFromRecordMap(record map[string]any) models.IPAsset {
	asset := assetFromProps(database.NodeProps(record["asset"]))
	asset.Creator = database.StringProp(record, "creator")
	asset.Owner = database.StringProp(record, "owner")
	asset.ParentID = database.StringProp(record, "parentId")
	asset.VersionOfID = database.StringProp(record, "versionOfId")
	asset.RemixCount = database.Int64Prop(record, "remixCount")
	asset.IsFavorited = database.BoolProp(record, "favorited")
	return asset
}

// draftLabel derives a short display name from the prompt. Truncation
// counts runes so multi-byte prompts never lose a half character.
func draftLabel(prompt string) string {
	label := strings.TrimSpace(prompt)
	if runes := []rune(label); len(runes) > 48 {
		label = strings.TrimSpace(string(runes[:48])) + "…"
	}
	return label
}
