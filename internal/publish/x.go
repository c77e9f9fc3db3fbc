package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/Alksalt/llm-social-agent/internal/diary"
)

const defaultXEndpoint = "https://api.x.com/2/tweets"

// XClient posts tweets via the v2 API with OAuth1 user-context auth.
type XClient struct {
	endpoint string
	timeout  time.Duration
}

var _ Publisher = (*XClient)(nil)

func NewXClient(timeout time.Duration) *XClient {
	endpoint := defaultXEndpoint
	if v := strings.TrimSpace(os.Getenv("X_API_BASE_URL")); v != "" {
		endpoint = strings.TrimRight(v, "/") + "/2/tweets"
	}
	return &XClient{endpoint: endpoint, timeout: timeout}
}

func (c *XClient) Platform() diary.Platform { return diary.PlatformX }

type xResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (c *XClient) Publish(ctx context.Context, text string, dryRun bool) (*Result, error) {
	if dryRun {
		return dryRunResult(c.Platform()), nil
	}

	apiKey := os.Getenv("X_API_KEY")
	apiSecret := os.Getenv("X_API_KEY_SECRET")
	accessToken := os.Getenv("X_ACCESS_TOKEN")
	accessSecret := os.Getenv("X_ACCESS_TOKEN_SECRET")
	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, newPublishError(c.Platform(), KindMissingCreds, errors.New("X API credentials not set"))
	}

	oauthCfg := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := oauthCfg.Client(ctx, token)
	httpClient.Timeout = c.timeout

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, newPublishError(c.Platform(), KindHTTPError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newPublishError(c.Platform(), KindHTTPError, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, newPublishError(c.Platform(), requestErrKind(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newPublishError(c.Platform(), KindHTTPError, httpError(resp))
	}

	var parsed xResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, newPublishError(c.Platform(), KindMalformed, err)
	}
	if parsed.Data.ID == "" {
		return nil, newPublishError(c.Platform(), KindMalformed, errors.New("no tweet id in response"))
	}

	return &Result{Success: true, ExternalID: parsed.Data.ID}, nil
}
