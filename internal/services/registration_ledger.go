// internal/services/registration_ledger.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/archelabs/arche-backend/internal/database"
	"github.com/archelabs/arche-backend/internal/models"
)

// AttemptLedger records registration saga progress so attempts that
// minted on-chain but never synced locally stay visible.
type AttemptLedger interface {
	Begin(ctx context.Context, attempt *models.RegistrationAttempt) error
	RecordStep(ctx context.Context, id string, step models.RegistrationStep, fields map[string]any) error
	Fail(ctx context.Context, id string, step models.RegistrationStep) error
	Complete(ctx context.Context, id string) error
	Stranded(ctx context.Context) ([]models.RegistrationAttempt, error)
}

// RegistrationLedger stores attempts as :Registration nodes alongside
// the asset graph.
type RegistrationLedger struct {
	graph *database.Graph
}

func NewRegistrationLedger(graph *database.Graph) *RegistrationLedger {
	return &RegistrationLedger{graph: graph}
}

func (l *RegistrationLedger) Begin(ctx context.Context, attempt *models.RegistrationAttempt) error {
	_, err := l.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			CREATE (r:Registration {
				id: $id,
				requester: $requester,
				draftId: $draftId,
				parentId: $parentId,
				lastStep: '',
				createdAt: $createdAt
			})`,
			map[string]any{
				"id":        attempt.ID,
				"requester": attempt.Requester,
				"draftId":   attempt.DraftID,
				"parentId":  attempt.ParentID,
				"createdAt": attempt.CreatedAt,
			})
	})
	if err != nil {
		return fmt.Errorf("failed to begin registration attempt: %w", err)
	}
	return nil
}

// RecordStep advances lastStep and stores step-specific fields such as
// pinned URIs or the mint tx hash.
func (l *RegistrationLedger) RecordStep(ctx context.Context, id string, step models.RegistrationStep, fields map[string]any) error {
	set := "SET r.lastStep = $step"
	args := map[string]any{"id": id, "step": string(step)}
	for key, value := range fields {
		switch key {
		case "imageUri", "metadataUri", "contentHash", "onChainId", "txHash":
			set += fmt.Sprintf(", r.%s = $%s", key, key)
			args[key] = value
		}
	}

	_, err := l.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (r:Registration {id: $id})\n"+set, args)
	})
	if err != nil {
		return fmt.Errorf("failed to record registration step: %w", err)
	}
	return nil
}

func (l *RegistrationLedger) Fail(ctx context.Context, id string, step models.RegistrationStep) error {
	_, err := l.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (r:Registration {id: $id})
			SET r.failedStep = $step`,
			map[string]any{"id": id, "step": string(step)})
	})
	if err != nil {
		return fmt.Errorf("failed to mark registration failure: %w", err)
	}
	return nil
}

func (l *RegistrationLedger) Complete(ctx context.Context, id string) error {
	_, err := l.graph.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, `
			MATCH (r:Registration {id: $id})
			SET r.lastStep = $step, r.completedAt = $now`,
			map[string]any{"id": id, "step": string(models.StepSynced), "now": time.Now().UTC()})
	})
	if err != nil {
		return fmt.Errorf("failed to complete registration attempt: %w", err)
	}
	return nil
}

// Stranded returns attempts that minted on-chain but were never
// promoted into the asset graph.
func (l *RegistrationLedger) Stranded(ctx context.Context) ([]models.RegistrationAttempt, error) {
	result, err := l.graph.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (r:Registration)
			WHERE r.lastStep = $minted AND r.completedAt IS NULL
			RETURN r{.*} AS attempt
			ORDER BY r.createdAt ASC`,
			map[string]any{"minted": string(models.StepMinted)})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		attempts := make([]models.RegistrationAttempt, 0, len(records))
		for _, record := range records {
			value, _ := record.Get("attempt")
			attempts = append(attempts, attemptFromProps(database.NodeProps(value)))
		}
		return attempts, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stranded registrations: %w", err)
	}

	return result.([]models.RegistrationAttempt), nil
}

func attemptFromProps(props map[string]any) models.RegistrationAttempt {
	return models.RegistrationAttempt{
		ID:          database.StringProp(props, "id"),
		DraftID:     database.StringProp(props, "draftId"),
		Requester:   database.StringProp(props, "requester"),
		ParentID:    database.StringProp(props, "parentId"),
		ImageURI:    database.StringProp(props, "imageUri"),
		MetadataURI: database.StringProp(props, "metadataUri"),
		ContentHash: database.StringProp(props, "contentHash"),
		OnChainID:   database.StringProp(props, "onChainId"),
		TxHash:      database.StringProp(props, "txHash"),
		LastStep:    database.StringProp(props, "lastStep"),
		FailedStep:  database.StringProp(props, "failedStep"),
		CreatedAt:   database.TimeProp(props, "createdAt"),
	}
}
