package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*OpenAIClient)(nil)

// NewOpenAIClient reads OPENAI_API_KEY and optional OPENAI_BASE_URL
// from the environment. A missing key is reported on first use, not
// at construction, so disabled providers cost nothing.
func NewOpenAIClient(timeout time.Duration) *OpenAIClient {
	endpoint := defaultOpenAIEndpoint
	if base := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); base != "" {
		endpoint = strings.TrimRight(base, "/") + "/chat/completions"
	}
	return &OpenAIClient{
		endpoint:   endpoint,
		apiKey:     os.Getenv("OPENAI_API_KEY"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_completion_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *OpenAIClient) Generate(ctx context.Context, req Request) (*Result, error) {
	if c.apiKey == "" {
		return nil, newProviderError(c.Name(), KindAuth, errors.New("OPENAI_API_KEY not set"))
	}

	messages := []openAIMessage{}
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, newProviderError(c.Name(), KindHTTPError, err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newProviderError(c.Name(), KindHTTPError, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newProviderError(c.Name(), requestErrKind(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newProviderError(c.Name(), classifyStatus(resp.StatusCode), apiError(resp))
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, newProviderError(c.Name(), KindMalformed, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, newProviderError(c.Name(), KindMalformed, errors.New("no choices in response"))
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return nil, newProviderError(c.Name(), KindEmpty, errors.New("empty completion"))
	}

	return &Result{
		Text:      text,
		Provider:  c.Name(),
		Model:     req.Model,
		TokensIn:  parsed.Usage.PromptTokens,
		TokensOut: parsed.Usage.CompletionTokens,
		LatencyMS: int(time.Since(start).Milliseconds()),
	}, nil
}

// requestErrKind distinguishes deadline expiry from transport failure.
func requestErrKind(ctx context.Context, err error) string {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnavailable
}

// apiError reads a bounded chunk of the error body for logging.
func apiError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(payload)))
}
