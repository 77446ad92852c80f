// internal/services/pinning_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ipfs/go-cid"
	"github.com/sirupsen/logrus"

	"github.com/archelabs/arche-backend/internal/config"
)

// Pinner is the content-pinning dependency of the registration
// coordinator.
type Pinner interface {
	PinImageFromURL(ctx context.Context, url string) (string, error)
	PinJSON(ctx context.Context, name string, payload any) (string, error)
}

// PinningService pins content to IPFS through the Pinata HTTP API.
type PinningService struct {
	httpClient *http.Client
	config     *config.Config
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
	PinSize  int64  `json:"PinSize"`
}

func NewPinningService(config *config.Config) *PinningService {
	return &PinningService{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		config:     config,
	}
}

// PinImageFromURL downloads the image and pins its bytes. URLs that
// already point at IPFS content are returned unchanged.
func (s *PinningService) PinImageFromURL(ctx context.Context, url string) (string, error) {
	if strings.HasPrefix(url, "ipfs://") {
		return url, nil
	}

	data, _, err := s.fetchBytes(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}

	var uri string
	err = s.retry(ctx, func() error {
		var pinErr error
		uri, pinErr = s.pinFile(ctx, data)
		return pinErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to pin image: %w", err)
	}

	return uri, nil
}

// PinJSON pins an arbitrary JSON document and returns its ipfs:// URI.
func (s *PinningService) PinJSON(ctx context.Context, name string, payload any) (string, error) {
	body, err := json.Marshal(map[string]any{
		"pinataMetadata": map[string]any{"name": name},
		"pinataContent":  payload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode pin payload: %w", err)
	}

	var uri string
	err = s.retry(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			s.config.Pinning.APIURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
		if reqErr != nil {
			return backoff.Permanent(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.config.Pinning.JWT)

		var pinErr error
		uri, pinErr = s.doPin(req)
		return pinErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to pin JSON: %w", err)
	}

	return uri, nil
}

// GatewayURL resolves an ipfs:// URI to a fetchable gateway URL.
func (s *PinningService) GatewayURL(uri string) string {
	if !strings.HasPrefix(uri, "ipfs://") {
		return uri
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.Pinning.GatewayURL, "/"),
		strings.TrimPrefix(uri, "ipfs://"))
}

func (s *PinningService) pinFile(ctx context.Context, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "content")
	if err != nil {
		return "", backoff.Permanent(err)
	}
	if _, err := part.Write(data); err != nil {
		return "", backoff.Permanent(err)
	}
	if err := writer.Close(); err != nil {
		return "", backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.Pinning.APIURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.config.Pinning.JWT)

	return s.doPin(req)
}

func (s *PinningService) doPin(req *http.Request) (string, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("pinning gateway returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		// Client errors do not heal on retry
		return "", backoff.Permanent(fmt.Errorf("pinning gateway returned %d: %s", resp.StatusCode, body))
	}

	var pin pinResponse
	if err := json.Unmarshal(body, &pin); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to decode pin response: %w", err))
	}

	if _, err := cid.Decode(pin.IpfsHash); err != nil {
		return "", backoff.Permanent(fmt.Errorf("pinning gateway returned invalid CID %q: %w", pin.IpfsHash, err))
	}

	return "ipfs://" + pin.IpfsHash, nil
}

func (s *PinningService) fetchBytes(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, "", err
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (s *PinningService) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.config.Pinning.MaxRetries)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil {
			logrus.WithError(err).Warn("Pinning attempt failed")
		}
		return err
	}, policy)
}
