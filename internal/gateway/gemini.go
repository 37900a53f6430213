package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

// GeminiInvoker is the primary call strategy, speaking to the model through
// the genai SDK.
type GeminiInvoker struct {
	client *genai.Client
	logger *logger_i.Logger
}

// NewGeminiInvoker creates the SDK-backed invoker. Returns nil when the
// client cannot be constructed, in which case the gateway runs on the
// secondary transport alone.
func NewGeminiInvoker(ctx context.Context, apiKey string) *GeminiInvoker {
	logger := logger_i.NewLogger("gateway_gemini")
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Error("Error creating genai client", "err", err)
		return nil
	}
	return &GeminiInvoker{client: client, logger: logger}
}

func (g *GeminiInvoker) Name() string { return "gemini-sdk" }

func (g *GeminiInvoker) Invoke(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}

	if req.ImagePath != "" {
		data, err := os.ReadFile(req.ImagePath)
		if err != nil {
			return "", fmt.Errorf("reading image %s: %w", req.ImagePath, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mimeTypeFor(req.ImagePath)))
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: parts,
	}}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		TopP:            genai.Ptr(config.ModelTopP),
		TopK:            genai.Ptr(config.ModelTopK),
		MaxOutputTokens: req.MaxTokens,
	}

	result, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", err
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("model %s returned an empty response", req.Model)
	}
	return text, nil
}

func mimeTypeFor(imagePath string) string {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}
