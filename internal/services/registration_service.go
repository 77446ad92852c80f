// internal/services/registration_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/archelabs/arche-backend/internal/config"
	"github.com/archelabs/arche-backend/internal/models"
	"github.com/archelabs/arche-backend/internal/utils"
)

// promoter is the slice of the asset service the coordinator needs.
type promoter interface {
	Promote(ctx context.Context, p models.Promotion) (*models.IPAsset, error)
}

// RegistrationService walks a draft through pinning, on-chain
// registration and local promotion. Steps run in order and the first
// failure aborts the rest; there is no rollback, the attempt ledger
// plus the reconcile sweep covers the gap instead.
type RegistrationService struct {
	assets   promoter
	pinner   Pinner
	protocol ProtocolClient
	ledger   AttemptLedger
	config   *config.Config
}

type RegisterRequest struct {
	DraftID    string         `json:"draft_id,omitempty"`
	Name       string         `json:"name,omitempty" validate:"omitempty,max=255"`
	Prompt     string         `json:"prompt,omitempty" validate:"omitempty,max=4000"`
	ImageURI   string         `json:"image_uri" validate:"required"`
	ParentIPID string         `json:"parent_ip_id,omitempty"`
	Fork       bool           `json:"fork,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
}

func NewRegistrationService(assets promoter, pinner Pinner, protocol ProtocolClient, ledger AttemptLedger, config *config.Config) *RegistrationService {
	return &RegistrationService{
		assets:   assets,
		pinner:   pinner,
		protocol: protocol,
		ledger:   ledger,
		config:   config,
	}
}

// Register runs the full saga for one request. A Fork request reuses
// the draft's informational lineage but registers as an unrelated
// genesis, skipping the parent's license entirely.
func (s *RegistrationService) Register(ctx context.Context, requester string, req *RegisterRequest) (*models.RegistrationResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	attempt := &models.RegistrationAttempt{
		ID:        "reg-" + uuid.NewString(),
		DraftID:   req.DraftID,
		Requester: requester,
		ParentID:  req.ParentIPID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledger.Begin(ctx, attempt); err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"attempt_id": attempt.ID,
		"requester":  requester,
		"draft_id":   req.DraftID,
	})

	imageURI, err := s.pinner.PinImageFromURL(ctx, req.ImageURI)
	if err != nil {
		s.abort(ctx, attempt.ID, models.StepImagePinned, log, err)
		return nil, &ExternalError{Service: "pinning", Err: err}
	}
	if err := s.ledger.RecordStep(ctx, attempt.ID, models.StepImagePinned, map[string]any{"imageUri": imageURI}); err != nil {
		return nil, err
	}

	metadata := s.buildMetadata(requester, imageURI, req)
	contentHash, err := utils.ContentHash(metadata)
	if err != nil {
		s.abort(ctx, attempt.ID, models.StepMetadataPinned, log, err)
		return nil, fmt.Errorf("metadata hashing failed: %w", err)
	}
	metadata["contentHash"] = contentHash

	metadataURI, err := s.pinner.PinJSON(ctx, "arche-ip-metadata", metadata)
	if err != nil {
		s.abort(ctx, attempt.ID, models.StepMetadataPinned, log, err)
		return nil, &ExternalError{Service: "pinning", Err: err}
	}
	if err := s.ledger.RecordStep(ctx, attempt.ID, models.StepMetadataPinned, map[string]any{
		"metadataUri": metadataURI,
		"contentHash": contentHash,
	}); err != nil {
		return nil, err
	}

	minted, err := s.mint(ctx, requester, metadataURI, contentHash, req)
	if err != nil {
		s.abort(ctx, attempt.ID, models.StepMinted, log, err)
		if errors.Is(err, ErrPaymentFailed) {
			return nil, err
		}
		return nil, &ExternalError{Service: "story", Err: err}
	}
	if err := s.ledger.RecordStep(ctx, attempt.ID, models.StepMinted, map[string]any{
		"onChainId": minted.IPID,
		"txHash":    minted.TxHash,
	}); err != nil {
		return nil, err
	}

	asset, err := s.promote(ctx, requester, minted, imageURI, metadataURI, req)
	if err != nil {
		// The mint landed on-chain; the sweep picks this attempt up.
		s.abort(ctx, attempt.ID, models.StepSynced, log, err)
		return nil, fmt.Errorf("local sync failed after mint %s: %w", minted.TxHash, err)
	}
	if err := s.ledger.Complete(ctx, attempt.ID); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"ip_id": asset.ID, "tx_hash": minted.TxHash}).Info("Registration completed")

	return &models.RegistrationResult{
		IPID:        asset.ID,
		TxHash:      minted.TxHash,
		MetadataURI: metadataURI,
		ExplorerURL: s.protocol.ExplorerURL(minted.TxHash),
		Forked:      req.Fork,
	}, nil
}

// Reconcile re-promotes attempts that minted but never synced. Returns
// the number of attempts repaired.
func (s *RegistrationService) Reconcile(ctx context.Context) (int, error) {
	stranded, err := s.ledger.Stranded(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, attempt := range stranded {
		promotion := models.Promotion{
			Mode:        models.PromotionFromDraft,
			DraftID:     attempt.DraftID,
			OnChainID:   attempt.OnChainID,
			TxHash:      attempt.TxHash,
			MetadataURI: attempt.MetadataURI,
			ImageURI:    attempt.ImageURI,
			Creator:     attempt.Requester,
			ParentID:    attempt.ParentID,
		}
		if attempt.DraftID == "" {
			promotion.Mode = models.PromotionFresh
		}

		if _, err := s.assets.Promote(ctx, promotion); err != nil {
			if errors.Is(err, ErrAlreadyRegistered) {
				// Promotion landed before the ledger write; close it out.
				if err := s.ledger.Complete(ctx, attempt.ID); err == nil {
					repaired++
				}
				continue
			}
			logrus.WithError(err).WithField("attempt_id", attempt.ID).Warn("Reconcile skipped attempt")
			continue
		}
		if err := s.ledger.Complete(ctx, attempt.ID); err != nil {
			return repaired, err
		}
		repaired++
	}

	return repaired, nil
}

func (s *RegistrationService) mint(ctx context.Context, requester, metadataURI, contentHash string, req *RegisterRequest) (*MintRegisterResult, error) {
	defaults := LicenseTerms{
		CommercialRevShare: s.config.Story.RevenueShare,
		MintingFee:         s.config.Story.MintingFee,
		Currency:           s.config.Story.LicenseCurrency,
	}

	if req.ParentIPID == "" || req.Fork {
		return s.protocol.MintAndRegister(ctx, MintRegisterRequest{
			Recipient:   requester,
			Collection:  s.config.Story.SPGCollection,
			MetadataURI: metadataURI,
			ContentHash: contentHash,
			Terms:       defaults,
		})
	}

	terms, err := s.protocol.LicenseTermsFor(ctx, req.ParentIPID)
	if err != nil {
		if errors.Is(err, ErrPaymentFailed) {
			return nil, err
		}
		terms = &defaults
	}

	tokenID, err := s.protocol.MintLicenseToken(ctx, req.ParentIPID, terms.TermsID)
	if err != nil {
		return nil, err
	}

	return s.protocol.RegisterDerivative(ctx, DerivativeRequest{
		Recipient:      requester,
		Collection:     s.config.Story.SPGCollection,
		MetadataURI:    metadataURI,
		ContentHash:    contentHash,
		ParentIPID:     req.ParentIPID,
		LicenseTokenID: tokenID,
	})
}

func (s *RegistrationService) promote(ctx context.Context, requester string, minted *MintRegisterResult, imageURI, metadataURI string, req *RegisterRequest) (*models.IPAsset, error) {
	promotion := models.Promotion{
		OnChainID:   minted.IPID,
		TxHash:      minted.TxHash,
		MetadataURI: metadataURI,
		ImageURI:    imageURI,
		Name:        req.Name,
		Creator:     requester,
	}

	if req.DraftID != "" {
		promotion.Mode = models.PromotionFromDraft
		promotion.DraftID = req.DraftID
	} else {
		promotion.Mode = models.PromotionFresh
		if !req.Fork {
			promotion.ParentID = req.ParentIPID
		}
	}

	return s.assets.Promote(ctx, promotion)
}

// buildMetadata assembles the IP metadata document. Key order does not
// matter; hashing canonicalizes it.
func (s *RegistrationService) buildMetadata(requester, imageURI string, req *RegisterRequest) map[string]any {
	metadata := map[string]any{
		"name":      req.Name,
		"prompt":    req.Prompt,
		"image":     imageURI,
		"creator":   requester,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if req.ParentPresentForMetadata() {
		metadata["parentIpId"] = req.ParentIPID
	}
	if len(req.Params) > 0 {
		metadata["generationParams"] = req.Params
	}
	return metadata
}

// ParentPresentForMetadata reports whether the metadata should carry a
// parent reference. Forked registrations keep it as an informational
// pointer only.
func (r *RegisterRequest) ParentPresentForMetadata() bool {
	return r.ParentIPID != ""
}

func (s *RegistrationService) abort(ctx context.Context, attemptID string, step models.RegistrationStep, log *logrus.Entry, cause error) {
	log.WithError(cause).WithField("step", string(step)).Error("Registration step failed")
	if err := s.ledger.Fail(ctx, attemptID, step); err != nil {
		log.WithError(err).Error("Failed to record registration failure")
	}
}
