// internal/services/story_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/archelabs/arche-backend/internal/config"
)

// ProtocolClient is the on-chain dependency of the registration
// coordinator.
type ProtocolClient interface {
	MintAndRegister(ctx context.Context, req MintRegisterRequest) (*MintRegisterResult, error)
	LicenseTermsFor(ctx context.Context, parentIPID string) (*LicenseTerms, error)
	MintLicenseToken(ctx context.Context, parentIPID, termsID string) (string, error)
	RegisterDerivative(ctx context.Context, req DerivativeRequest) (*MintRegisterResult, error)
	ExplorerURL(txHash string) string
}

// LicenseTerms mirrors the programmable license attached to an IP.
type LicenseTerms struct {
	TermsID            string  `json:"terms_id,omitempty"`
	CommercialRevShare float64 `json:"commercial_rev_share"`
	MintingFee         string  `json:"minting_fee"`
	Currency           string  `json:"currency"`
}

type MintRegisterRequest struct {
	Recipient   string       `json:"recipient"`
	Collection  string       `json:"collection"`
	MetadataURI string       `json:"metadata_uri"`
	ContentHash string       `json:"content_hash"`
	Terms       LicenseTerms `json:"terms"`
}

type DerivativeRequest struct {
	Recipient      string `json:"recipient"`
	Collection     string `json:"collection"`
	MetadataURI    string `json:"metadata_uri"`
	ContentHash    string `json:"content_hash"`
	ParentIPID     string `json:"parent_ip_id"`
	LicenseTokenID string `json:"license_token_id"`
}

type MintRegisterResult struct {
	IPID           string `json:"ip_id"`
	TxHash         string `json:"tx_hash"`
	LicenseTermsID string `json:"license_terms_id,omitempty"`
}

// StoryService talks to the protocol gateway, a sidecar that signs and
// submits Story Protocol transactions.
type StoryService struct {
	httpClient *http.Client
	config     *config.Config
}

type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewStoryService(config *config.Config) *StoryService {
	return &StoryService{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		config:     config,
	}
}

// DefaultTerms are the commercial-remix terms applied to genesis
// registrations.
func (s *StoryService) DefaultTerms() LicenseTerms {
	return LicenseTerms{
		CommercialRevShare: s.config.Story.RevenueShare,
		MintingFee:         s.config.Story.MintingFee,
		Currency:           s.config.Story.LicenseCurrency,
	}
}

func (s *StoryService) MintAndRegister(ctx context.Context, req MintRegisterRequest) (*MintRegisterResult, error) {
	var result MintRegisterResult
	if err := s.post(ctx, "/ip/mint-and-register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LicenseTermsFor fetches the license terms attached to a parent IP.
// Parents without terms fall back to the configured defaults.
func (s *StoryService) LicenseTermsFor(ctx context.Context, parentIPID string) (*LicenseTerms, error) {
	var terms LicenseTerms
	err := s.get(ctx, "/ip/"+parentIPID+"/license-terms", &terms)
	if err != nil {
		return nil, err
	}
	if terms.TermsID == "" {
		def := s.DefaultTerms()
		return &def, nil
	}
	return &terms, nil
}

func (s *StoryService) MintLicenseToken(ctx context.Context, parentIPID, termsID string) (string, error) {
	var result struct {
		LicenseTokenID string `json:"license_token_id"`
	}
	payload := map[string]string{
		"parent_ip_id": parentIPID,
		"terms_id":     termsID,
	}
	if err := s.post(ctx, "/license/mint", payload, &result); err != nil {
		return "", err
	}
	return result.LicenseTokenID, nil
}

func (s *StoryService) RegisterDerivative(ctx context.Context, req DerivativeRequest) (*MintRegisterResult, error) {
	var result MintRegisterResult
	if err := s.post(ctx, "/ip/register-derivative", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *StoryService) ExplorerURL(txHash string) string {
	return fmt.Sprintf("%s/transactions/%s", strings.TrimSuffix(s.config.Story.ExplorerURL, "/"), txHash)
}

func (s *StoryService) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode gateway request: %w", err)
	}

	return s.retry(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			s.config.Story.GatewayURL+path, bytes.NewReader(body))
		if reqErr != nil {
			return backoff.Permanent(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if s.config.Story.APIKey != "" {
			req.Header.Set("X-Api-Key", s.config.Story.APIKey)
		}
		return s.do(req, out)
	})
}

func (s *StoryService) get(ctx context.Context, path string, out any) error {
	return s.retry(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, s.config.Story.GatewayURL+path, nil)
		if reqErr != nil {
			return backoff.Permanent(reqErr)
		}
		if s.config.Story.APIKey != "" {
			req.Header.Set("X-Api-Key", s.config.Story.APIKey)
		}
		return s.do(req, out)
	})
}

func (s *StoryService) do(req *http.Request, out any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("protocol gateway returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		var gwErr gatewayError
		_ = json.Unmarshal(body, &gwErr)
		if isPaymentError(resp.StatusCode, gwErr.Code) {
			// Retrying cannot fund the wallet; surface immediately so
			// the caller can offer the fork path.
			return backoff.Permanent(fmt.Errorf("%s: %w", gwErr.Message, ErrPaymentFailed))
		}
		return backoff.Permanent(fmt.Errorf("protocol gateway returned %d: %s", resp.StatusCode, body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode gateway response: %w", err))
		}
	}
	return nil
}

func isPaymentError(status int, code string) bool {
	if status == http.StatusPaymentRequired {
		return true
	}
	switch code {
	case "INSUFFICIENT_FUNDS", "PAYMENT_REQUIRED", "MINTING_FEE_UNPAID":
		return true
	}
	return false
}

func (s *StoryService) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.config.Story.MaxRetries)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil {
			logrus.WithError(err).Warn("Protocol gateway attempt failed")
		}
		return err
	}, policy)
}
