// internal/services/registration_service_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archelabs/arche-backend/internal/config"
	"github.com/archelabs/arche-backend/internal/models"
)

type fakePinner struct {
	pinImageErr error
	pinJSONErr  error
	imageCalls  int
	jsonCalls   int
	lastPayload any
}

func (f *fakePinner) PinImageFromURL(ctx context.Context, url string) (string, error) {
	f.imageCalls++
	if f.pinImageErr != nil {
		return "", f.pinImageErr
	}
	return "ipfs://QmImage", nil
}

func (f *fakePinner) PinJSON(ctx context.Context, name string, payload any) (string, error) {
	f.jsonCalls++
	f.lastPayload = payload
	if f.pinJSONErr != nil {
		return "", f.pinJSONErr
	}
	return "ipfs://QmMeta", nil
}

type fakeProtocol struct {
	mintErr        error
	derivativeErr  error
	mintCalls      int
	termsCalls     int
	tokenCalls     int
	derivCalls     int
	lastDerivative DerivativeRequest
}

func (f *fakeProtocol) MintAndRegister(ctx context.Context, req MintRegisterRequest) (*MintRegisterResult, error) {
	f.mintCalls++
	if f.mintErr != nil {
		return nil, f.mintErr
	}
	return &MintRegisterResult{IPID: "0xIP", TxHash: "0xTX"}, nil
}

func (f *fakeProtocol) LicenseTermsFor(ctx context.Context, parentIPID string) (*LicenseTerms, error) {
	f.termsCalls++
	return &LicenseTerms{TermsID: "terms-1"}, nil
}

func (f *fakeProtocol) MintLicenseToken(ctx context.Context, parentIPID, termsID string) (string, error) {
	f.tokenCalls++
	return "token-1", nil
}

func (f *fakeProtocol) RegisterDerivative(ctx context.Context, req DerivativeRequest) (*MintRegisterResult, error) {
	f.derivCalls++
	f.lastDerivative = req
	if f.derivativeErr != nil {
		return nil, f.derivativeErr
	}
	return &MintRegisterResult{IPID: "0xDerivIP", TxHash: "0xDerivTX"}, nil
}

func (f *fakeProtocol) ExplorerURL(txHash string) string {
	return "https://explorer.test/tx/" + txHash
}

type fakePromoter struct {
	err   error
	calls []models.Promotion
}

func (f *fakePromoter) Promote(ctx context.Context, p models.Promotion) (*models.IPAsset, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	return &models.IPAsset{ID: p.OnChainID, Status: models.AssetStatusRegistered}, nil
}

type fakeLedger struct {
	begun      []models.RegistrationAttempt
	steps      []models.RegistrationStep
	failedStep models.RegistrationStep
	completed  []string
	stranded   []models.RegistrationAttempt
}

func (f *fakeLedger) Begin(ctx context.Context, attempt *models.RegistrationAttempt) error {
	f.begun = append(f.begun, *attempt)
	return nil
}

func (f *fakeLedger) RecordStep(ctx context.Context, id string, step models.RegistrationStep, fields map[string]any) error {
	f.steps = append(f.steps, step)
	return nil
}

func (f *fakeLedger) Fail(ctx context.Context, id string, step models.RegistrationStep) error {
	f.failedStep = step
	return nil
}

func (f *fakeLedger) Complete(ctx context.Context, id string) error {
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeLedger) Stranded(ctx context.Context) ([]models.RegistrationAttempt, error) {
	return f.stranded, nil
}

func registrationFixture() (*RegistrationService, *fakePinner, *fakeProtocol, *fakePromoter, *fakeLedger) {
	pinner := &fakePinner{}
	protocol := &fakeProtocol{}
	promoter := &fakePromoter{}
	ledger := &fakeLedger{}

	cfg := &config.Config{
		Story: config.StoryConfig{
			SPGCollection:   "0xCollection",
			RevenueShare:    10.0,
			MintingFee:      "0",
			LicenseCurrency: "0x1514000000000000000000000000000000000000",
		},
	}

	return NewRegistrationService(promoter, pinner, protocol, ledger, cfg), pinner, protocol, promoter, ledger
}

func TestRegisterGenesis(t *testing.T) {
	svc, pinner, protocol, promoter, ledger := registrationFixture()

	result, err := svc.Register(context.Background(), "0xCreator", &RegisterRequest{
		DraftID:  "draft-1",
		Name:     "Dawn",
		Prompt:   "a dawn scene",
		ImageURI: "http://previews.test/dawn.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "0xIP", result.IPID)
	assert.Equal(t, "0xTX", result.TxHash)
	assert.Equal(t, "ipfs://QmMeta", result.MetadataURI)
	assert.Equal(t, "https://explorer.test/tx/0xTX", result.ExplorerURL)
	assert.False(t, result.Forked)

	// Genesis never touches the derivative endpoints
	assert.Equal(t, 1, protocol.mintCalls)
	assert.Zero(t, protocol.termsCalls)
	assert.Zero(t, protocol.derivCalls)

	assert.Equal(t, []models.RegistrationStep{
		models.StepImagePinned,
		models.StepMetadataPinned,
		models.StepMinted,
	}, ledger.steps)
	assert.Len(t, ledger.completed, 1)

	require.Len(t, promoter.calls, 1)
	assert.Equal(t, models.PromotionFromDraft, promoter.calls[0].Mode)
	assert.Equal(t, "draft-1", promoter.calls[0].DraftID)
	assert.Equal(t, "ipfs://QmImage", promoter.calls[0].ImageURI)

	assert.Equal(t, 1, pinner.imageCalls)
	assert.Equal(t, 1, pinner.jsonCalls)
}

func TestRegisterDerivative(t *testing.T) {
	svc, _, protocol, promoter, _ := registrationFixture()

	result, err := svc.Register(context.Background(), "0xCreator", &RegisterRequest{
		ImageURI:   "ipfs://QmAlreadyPinned",
		ParentIPID: "0xParent",
	})
	require.NoError(t, err)

	assert.Equal(t, "0xDerivIP", result.IPID)
	assert.Equal(t, 1, protocol.termsCalls)
	assert.Equal(t, 1, protocol.tokenCalls)
	assert.Equal(t, 1, protocol.derivCalls)
	assert.Zero(t, protocol.mintCalls)
	assert.Equal(t, "0xParent", protocol.lastDerivative.ParentIPID)
	assert.Equal(t, "token-1", protocol.lastDerivative.LicenseTokenID)

	// Fresh promotion carries the on-chain parent link
	require.Len(t, promoter.calls, 1)
	assert.Equal(t, models.PromotionFresh, promoter.calls[0].Mode)
	assert.Equal(t, "0xParent", promoter.calls[0].ParentID)
}

func TestRegisterForkSkipsLicense(t *testing.T) {
	svc, _, protocol, promoter, _ := registrationFixture()

	result, err := svc.Register(context.Background(), "0xCreator", &RegisterRequest{
		ImageURI:   "ipfs://QmImg",
		ParentIPID: "0xParent",
		Fork:       true,
	})
	require.NoError(t, err)

	assert.True(t, result.Forked)
	assert.Equal(t, 1, protocol.mintCalls)
	assert.Zero(t, protocol.tokenCalls)
	assert.Zero(t, protocol.derivCalls)

	// Forked works register as unrelated genesis
	require.Len(t, promoter.calls, 1)
	assert.Empty(t, promoter.calls[0].ParentID)
}

func TestRegisterAbortsOnPinFailure(t *testing.T) {
	svc, pinner, protocol, promoter, ledger := registrationFixture()
	pinner.pinImageErr = errors.New("gateway down")

	_, err := svc.Register(context.Background(), "0xCreator", &RegisterRequest{
		ImageURI: "http://previews.test/x.png",
	})
	require.Error(t, err)

	var external *ExternalError
	assert.ErrorAs(t, err, &external)
	assert.Equal(t, "pinning", external.Service)

	assert.Empty(t, ledger.steps)
	assert.Equal(t, models.StepImagePinned, ledger.failedStep)
	assert.Zero(t, protocol.mintCalls)
	assert.Empty(t, promoter.calls)
}

func TestRegisterSurfacesPaymentFailure(t *testing.T) {
	svc, _, protocol, promoter, ledger := registrationFixture()
	protocol.derivativeErr = fmt.Errorf("wallet empty: %w", ErrPaymentFailed)

	_, err := svc.Register(context.Background(), "0xCreator", &RegisterRequest{
		ImageURI:   "ipfs://QmImg",
		ParentIPID: "0xParent",
	})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrPaymentFailed)

	var external *ExternalError
	assert.False(t, errors.As(err, &external))

	assert.Equal(t, models.StepMinted, ledger.failedStep)
	assert.Empty(t, promoter.calls)
}

func TestRegisterRecordsMintWhenSyncFails(t *testing.T) {
	svc, _, _, promoter, ledger := registrationFixture()
	promoter.err = errors.New("write timeout")

	_, err := svc.Register(context.Background(), "0xCreator", &RegisterRequest{
		DraftID:  "draft-2",
		ImageURI: "ipfs://QmImg",
	})
	require.Error(t, err)

	// The mint landed; the ledger keeps it visible for the sweep
	assert.Contains(t, ledger.steps, models.StepMinted)
	assert.Equal(t, models.StepSynced, ledger.failedStep)
	assert.Empty(t, ledger.completed)
}

func TestReconcileRepairsStranded(t *testing.T) {
	svc, _, _, promoter, ledger := registrationFixture()
	ledger.stranded = []models.RegistrationAttempt{
		{
			ID:        "reg-1",
			DraftID:   "draft-1",
			Requester: "0xCreator",
			OnChainID: "0xIP1",
			TxHash:    "0xTX1",
			LastStep:  string(models.StepMinted),
		},
		{
			ID:        "reg-2",
			Requester: "0xCreator",
			OnChainID: "0xIP2",
			TxHash:    "0xTX2",
			LastStep:  string(models.StepMinted),
		},
	}

	repaired, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, repaired)
	require.Len(t, promoter.calls, 2)
	assert.Equal(t, models.PromotionFromDraft, promoter.calls[0].Mode)
	assert.Equal(t, models.PromotionFresh, promoter.calls[1].Mode)
	assert.Equal(t, []string{"reg-1", "reg-2"}, ledger.completed)
}

func TestReconcileClosesAlreadyPromoted(t *testing.T) {
	svc, _, _, promoter, ledger := registrationFixture()
	promoter.err = ErrAlreadyRegistered
	ledger.stranded = []models.RegistrationAttempt{
		{ID: "reg-1", DraftID: "draft-1", OnChainID: "0xIP1", LastStep: string(models.StepMinted)},
	}

	repaired, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repaired)
	assert.Equal(t, []string{"reg-1"}, ledger.completed)
}
