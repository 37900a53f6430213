package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/drawparse/drawparse/internal/config"
	"github.com/drawparse/drawparse/pkg/logger_i"
)

// RestInvoker is the secondary call strategy: a raw JSON POST against the
// service's invoke endpoint. It exists because the SDK path has failed in the
// field on schema drift; the raw body lets extractText probe every response
// shape the service has been seen to emit.
type RestInvoker struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logger_i.Logger
}

type restMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type inferenceConfig struct {
	MaxTokens   int32   `json:"maxTokens"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"topP"`
	TopK        float32 `json:"topK"`
}

type restRequest struct {
	SchemaVersion   string          `json:"schemaVersion"`
	Messages        []restMessage   `json:"messages"`
	InferenceConfig inferenceConfig `json:"inferenceConfig"`
}

// NewRestInvoker builds the raw-HTTP invoker with the pooled transport used
// for every outbound connection in this project.
func NewRestInvoker(endpoint, apiKey string) *RestInvoker {
	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
	}
	return &RestInvoker{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Transport: transport},
		logger:     logger_i.NewLogger("gateway_rest"),
	}
}

func (r *RestInvoker) Name() string { return "rest" }

func (r *RestInvoker) Invoke(ctx context.Context, req Request) (string, error) {
	if r.endpoint == "" {
		return "", fmt.Errorf("no invoke endpoint configured")
	}

	content := []contentPart{{Type: "text", Text: req.Prompt}}
	if req.ImagePath != "" {
		data, err := os.ReadFile(req.ImagePath)
		if err != nil {
			return "", fmt.Errorf("reading image %s: %w", req.ImagePath, err)
		}
		content = append(content, contentPart{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: mimeTypeFor(req.ImagePath),
				Data:      base64.StdEncoding.EncodeToString(data),
			},
		})
	}

	body, err := json.Marshal(restRequest{
		SchemaVersion: "messages-v1",
		Messages:      []restMessage{{Role: "user", Content: content}},
		InferenceConfig: inferenceConfig{
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			TopP:        config.ModelTopP,
			TopK:        config.ModelTopK,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	url := fmt.Sprintf("%s/model/%s/invoke", r.endpoint, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("invoking model %s: %w", req.Model, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("ThrottlingException: HTTP 429: %s", string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model %s returned HTTP %d: %s", req.Model, resp.StatusCode, string(respBody))
	}

	text, matched := extractText(respBody)
	if !matched {
		r.logger.Error("No known shape in model response", "model", req.Model, "body", string(respBody))
	}
	return text, nil
}
