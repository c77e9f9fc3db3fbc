package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Gemini generateContent API.
type GeminiClient struct {
	base       string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*GeminiClient)(nil)

// NewGeminiClient reads GEMINI_API_KEY (falling back to
// GOOGLE_API_KEY) and optional GEMINI_BASE_URL from the environment.
func NewGeminiClient(timeout time.Duration) *GeminiClient {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	base := defaultGeminiBase
	if v := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")); v != "" {
		base = strings.TrimRight(v, "/")
	}
	return &GeminiClient{
		base:       base,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *GeminiClient) Name() string { return "gemini" }

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Result, error) {
	if c.apiKey == "" {
		return nil, newProviderError(c.Name(), KindAuth, errors.New("GEMINI_API_KEY not set"))
	}

	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newProviderError(c.Name(), KindHTTPError, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.base, req.Model)

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, newProviderError(c.Name(), KindHTTPError, err)
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newProviderError(c.Name(), requestErrKind(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newProviderError(c.Name(), classifyStatus(resp.StatusCode), apiError(resp))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, newProviderError(c.Name(), KindMalformed, err)
	}
	if len(parsed.Candidates) == 0 {
		return nil, newProviderError(c.Name(), KindMalformed, errors.New("no candidates in response"))
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, newProviderError(c.Name(), KindEmpty, errors.New("empty candidate"))
	}

	return &Result{
		Text:      text,
		Provider:  c.Name(),
		Model:     req.Model,
		TokensIn:  parsed.UsageMetadata.PromptTokenCount,
		TokensOut: parsed.UsageMetadata.CandidatesTokenCount,
		LatencyMS: int(time.Since(start).Milliseconds()),
	}, nil
}
