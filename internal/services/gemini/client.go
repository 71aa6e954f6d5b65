package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"pixly/internal/services"
)

const (
	defaultModel       = "gemini-1.5-flash"
	defaultHTTPTimeout = 30 * time.Second
	healthPrompt       = `Respond with {"ok":true}`
)

// Config captures the settings needed to reach the Gemini API.
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	TimeoutSeconds int
}

// Client sends categorization prompts to Gemini through the genai SDK.
type Client struct {
	model  string
	models *genai.Models
}

// NewClient constructs a Gemini client. The API key is required.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "gemini client", "api key required", nil)
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	clientCfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "gemini client", "create client", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	return &Client{model: model, models: client.Models}, nil
}

// Name identifies the backend in logs and metrics.
func (c *Client) Name() string {
	return "gemini"
}

// Complete sends the prompts and returns the raw text of the first candidate.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", services.Wrap(services.ErrValidation, "classify", "gemini request", "user prompt required", nil)
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}
	if sys := strings.TrimSpace(systemPrompt); sys != "" {
		config.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(userPrompt), config)
	if err != nil {
		return "", classifyError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", services.Wrap(services.ErrExternalTool, "classify", "gemini request", "empty response", nil)
	}
	return text, nil
}

// HealthCheck verifies the key and model with a minimal request.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.Complete(ctx, "You must respond with JSON only.", healthPrompt)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ReplaceAll(content, " ", ""), `"ok":true`) {
		return fmt.Errorf("gemini health: unexpected response %q", content)
	}
	return nil
}

func classifyError(err error) error {
	var apiErr genai.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "classify", "gemini request", "request timed out", err)
	case errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "API key")):
		return services.Wrap(services.ErrConfiguration, "classify", "gemini request", "credentials rejected", err)
	case errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests:
		return services.Wrap(services.ErrTransient, "classify", "gemini request", "rate limited", err)
	default:
		return services.Wrap(services.ErrExternalTool, "classify", "gemini request", "", err)
	}
}
