package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/raphaelgruber/medilex/internal/models"
)

const (
	// DefaultGeminiBaseURL is the Gemini REST API root.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGeminiTextModel handles text completions and chat.
	DefaultGeminiTextModel = "gemini-2.5-flash"

	// DefaultGeminiImageModel returns inline image parts.
	DefaultGeminiImageModel = "gemini-2.5-flash-image"
)

// GeminiClient implements Completer against the Gemini REST API directly.
// The SDK wrappers used for other providers expose neither inline image
// parts nor the googleSearch grounding tool, so this client speaks the wire
// format itself.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	client     *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Compile-time check that GeminiClient implements Completer.
var _ Completer = (*GeminiClient)(nil)

// GeminiOption customizes a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiBaseURL overrides the API root (used by tests).
func WithGeminiBaseURL(u string) GeminiOption {
	return func(c *GeminiClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithGeminiModels overrides the text and image model names.
func WithGeminiModels(text, image string) GeminiOption {
	return func(c *GeminiClient) {
		if text != "" {
			c.textModel = text
		}
		if image != "" {
			c.imageModel = image
		}
	}
}

// WithGeminiLimiter sets the request rate limiter.
func WithGeminiLimiter(l *rate.Limiter) GeminiOption {
	return func(c *GeminiClient) { c.limiter = l }
}

// NewGeminiClient creates a Gemini-backed Completer. The API key is
// immutable for the client's lifetime.
func NewGeminiClient(apiKey string, logger *slog.Logger, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required for Gemini")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &GeminiClient{
		apiKey:     apiKey,
		baseURL:    DefaultGeminiBaseURL,
		textModel:  DefaultGeminiTextModel,
		imageModel: DefaultGeminiImageModel,
		client:     &http.Client{Timeout: 2 * time.Minute},
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 2),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// geminiPart is one content part; exactly one field is set.
type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

// geminiBlob carries inline binary content.
type geminiBlob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Tools             []geminiTool    `json:"tools,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// CompleteText sends a single-turn prompt, optionally with search grounding.
func (c *GeminiClient) CompleteText(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if opts.WebSearch {
		req.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}

	resp, err := c.generate(ctx, c.textModel, req)
	if err != nil {
		return "", err
	}
	text := firstText(resp)
	if text == "" {
		return "", fmt.Errorf("empty completion response")
	}
	return text, nil
}

// CompleteImage asks the image model for an illustration and extracts the
// first inline image part. A well-formed response without one yields
// ErrNoImage.
func (c *GeminiClient) CompleteImage(ctx context.Context, prompt string) (*ImageData, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}

	resp, err := c.generate(ctx, c.imageModel, req)
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline image: %w", err)
			}
			return &ImageData{MIMEType: part.InlineData.MIMEType, Data: raw}, nil
		}
	}
	return nil, ErrNoImage
}

// Chat replays the prior turns under a system instruction and sends one
// new user message.
func (c *GeminiClient) Chat(ctx context.Context, system string, turns []Turn, message string) (string, error) {
	contents := make([]geminiContent, 0, len(turns)+1)
	for _, t := range turns {
		role := "user"
		if t.Role == models.RoleModel {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: t.Text}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: message}}})

	req := geminiRequest{Contents: contents}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	resp, err := c.generate(ctx, c.textModel, req)
	if err != nil {
		return "", err
	}
	return firstText(resp), nil
}

// generate performs one generateContent round trip.
func (c *GeminiClient) generate(ctx context.Context, model string, payload geminiRequest) (*geminiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("gemini request",
		"model", model,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return nil, wrapFatalError(fmt.Errorf("gemini: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	return &parsed, nil
}

// firstText concatenates the text parts of the first candidate.
func firstText(resp *geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}
