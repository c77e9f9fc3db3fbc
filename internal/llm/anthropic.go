package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion         = "2023-06-01"
)

// AnthropicClient calls the Anthropic messages API.
type AnthropicClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*AnthropicClient)(nil)

// NewAnthropicClient reads ANTHROPIC_API_KEY and optional
// ANTHROPIC_BASE_URL from the environment.
func NewAnthropicClient(timeout time.Duration) *AnthropicClient {
	endpoint := defaultAnthropicEndpoint
	if base := strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL")); base != "" {
		endpoint = strings.TrimRight(base, "/") + "/messages"
	}
	return &AnthropicClient{
		endpoint:   endpoint,
		apiKey:     os.Getenv("ANTHROPIC_API_KEY"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *AnthropicClient) Generate(ctx context.Context, req Request) (*Result, error) {
	if c.apiKey == "" {
		return nil, newProviderError(c.Name(), KindAuth, errors.New("ANTHROPIC_API_KEY not set"))
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       req.Model,
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, newProviderError(c.Name(), KindHTTPError, err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newProviderError(c.Name(), KindHTTPError, err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newProviderError(c.Name(), requestErrKind(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newProviderError(c.Name(), classifyStatus(resp.StatusCode), apiError(resp))
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, newProviderError(c.Name(), KindMalformed, err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, newProviderError(c.Name(), KindEmpty, errors.New("no text blocks in response"))
	}

	return &Result{
		Text:      text,
		Provider:  c.Name(),
		Model:     req.Model,
		TokensIn:  parsed.Usage.InputTokens,
		TokensOut: parsed.Usage.OutputTokens,
		LatencyMS: int(time.Since(start).Milliseconds()),
	}, nil
}
