// internal/services/user_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/archelabs/arche-backend/internal/database"
	"github.com/archelabs/arche-backend/internal/models"
	"github.com/archelabs/arche-backend/internal/utils"
)

type UserService struct {
	graph *database.Graph
}

type UpdateProfileRequest struct {
	Username  string `json:"username,omitempty" validate:"omitempty,min=2,max=50"`
	Bio       string `json:"bio,omitempty" validate:"omitempty,max=500"`
	AvatarURI string `json:"avatar_uri,omitempty" validate:"omitempty,url"`
}

func NewUserService(graph *database.Graph) *UserService {
	return &UserService{graph: graph}
}

// GetProfile returns the user record with its creation, ownership and
// favorite counters.
func (s *UserService) GetProfile(ctx context.Context, address string) (*models.Profile, error) {
	result, err := s.graph.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (u:User {address: $address})
			RETURN u{.*} AS user,
				COUNT { (u)-[:CREATED]->(:IPAsset) } AS created,
				COUNT { (u)-[:OWNS]->(:IPAsset) } AS owned,
				COUNT { (u)-[:FAVORITED]->(:IPAsset) } AS favorites`,
			map[string]any{"address": address})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, ErrNotFound
		}
		profile := profileFromRecordMap(record.AsMap())
		return &profile, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Profile), nil
}

// UpsertProfile merges the user node and overwrites only the fields
// the request carries.
func (s *UserService) UpsertProfile(ctx context.Context, address string, req *UpdateProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	result, err := s.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MERGE (u:User {address: $address})
			ON CREATE SET u.createdAt = $now
			SET u.username = CASE WHEN $username = '' THEN u.username ELSE $username END,
				u.bio = CASE WHEN $bio = '' THEN u.bio ELSE $bio END,
				u.avatarUri = CASE WHEN $avatarUri = '' THEN u.avatarUri ELSE $avatarUri END
			RETURN u{.*} AS user`,
			map[string]any{
				"address":   address,
				"username":  req.Username,
				"bio":       req.Bio,
				"avatarUri": req.AvatarURI,
				"now":       time.Now().UTC(),
			})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		value, _ := record.Get("user")
		user := userFromProps(database.NodeProps(value))
		return &user, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return result.(*models.User), nil
}

func userFromProps(props map[string]any) models.User {
	return models.User{
		Address:   database.StringProp(props, "address"),
		Username:  database.StringProp(props, "username"),
		Bio:       database.StringProp(props, "bio"),
		AvatarURI: database.StringProp(props, "avatarUri"),
		CreatedAt: database.TimeProp(props, "createdAt"),
	}
}

func profileFromRecordMap(record map[string]any) models.Profile {
	return models.Profile{
		User:          userFromProps(database.NodeProps(record["user"])),
		CreatedCount:  database.Int64Prop(record, "created"),
		OwnedCount:    database.Int64Prop(record, "owned"),
		FavoriteCount: database.Int64Prop(record, "favorites"),
	}
}
