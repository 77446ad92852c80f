// internal/services/generation_service.go
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/archelabs/arche-backend/internal/config"
)

// GenerationService turns prompts into preview images via the OpenAI
// image API and hands the bytes to storage.
type GenerationService struct {
	client  *openai.Client
	storage *StorageService
	config  *config.Config
}

type GenerateRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1"`
	Size   string `json:"size,omitempty"`
}

type GenerateResult struct {
	ImageURI string `json:"image_uri"`
	Prompt   string `json:"prompt"`
	Model    string `json:"model"`
	Size     string `json:"size"`
}

func NewGenerationService(config *config.Config, storage *StorageService) *GenerationService {
	return &GenerationService{
		client:  openai.NewClient(config.Generation.OpenAIKey),
		storage: storage,
		config:  config,
	}
}

// Generate renders one image for the prompt and returns the stored
// preview URL, which becomes the draft's imageUri.
func (s *GenerationService) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	prompt = clampPrompt(prompt, s.config.Generation.MaxPromptLen)

	size := req.Size
	if size == "" {
		size = s.config.Generation.DefaultSize
	}

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.config.Generation.Model,
		Size:           size,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image generation returned no data")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated image: %w", err)
	}

	upload, err := s.storage.UploadBytes(data, ".png", "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to store generated image: %w", err)
	}

	return &GenerateResult{
		ImageURI: upload.URL,
		Prompt:   prompt,
		Model:    s.config.Generation.Model,
		Size:     size,
	}, nil
}

// clampPrompt caps the prompt length in runes so truncation never
// splits a multi-byte character.
func clampPrompt(prompt string, max int) string {
	runes := []rune(prompt)
	if len(runes) <= max {
		return prompt
	}
	return string(runes[:max])
}
