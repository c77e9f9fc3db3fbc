package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Alksalt/llm-social-agent/internal/diary"
)

const defaultThreadsBase = "https://graph.threads.net/v1.0"

// ThreadsClient posts via the Threads graph API. Publishing is two
// steps: create a media container, then publish it.
type ThreadsClient struct {
	base       string
	httpClient *http.Client
}

var _ Publisher = (*ThreadsClient)(nil)

func NewThreadsClient(timeout time.Duration) *ThreadsClient {
	base := defaultThreadsBase
	if v := strings.TrimSpace(os.Getenv("THREADS_API_BASE_URL")); v != "" {
		base = strings.TrimRight(v, "/")
	}
	return &ThreadsClient{
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *ThreadsClient) Platform() diary.Platform { return diary.PlatformThreads }

func (c *ThreadsClient) Publish(ctx context.Context, text string, dryRun bool) (*Result, error) {
	if dryRun {
		return dryRunResult(c.Platform()), nil
	}

	userID := os.Getenv("THREADS_USER_ID")
	accessToken := os.Getenv("THREADS_ACCESS_TOKEN")
	if userID == "" || accessToken == "" {
		return nil, newPublishError(c.Platform(), KindMissingCreds, errors.New("Threads credentials not set"))
	}

	creationID, err := c.postForm(ctx, fmt.Sprintf("%s/%s/threads", c.base, userID), url.Values{
		"media_type":   {"TEXT"},
		"text":         {text},
		"access_token": {accessToken},
	})
	if err != nil {
		return nil, err
	}
	if creationID == "" {
		return nil, newPublishError(c.Platform(), KindMalformed, errors.New("create did not return a container id"))
	}

	mediaID, err := c.postForm(ctx, fmt.Sprintf("%s/%s/threads_publish", c.base, userID), url.Values{
		"creation_id":  {creationID},
		"access_token": {accessToken},
	})
	if err != nil {
		return nil, err
	}
	if mediaID == "" {
		mediaID = creationID
	}

	return &Result{Success: true, ExternalID: mediaID}, nil
}

// postForm posts form data and returns the "id" field of the response.
func (c *ThreadsClient) postForm(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", newPublishError(c.Platform(), KindHTTPError, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newPublishError(c.Platform(), requestErrKind(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", newPublishError(c.Platform(), KindHTTPError, httpError(resp))
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", newPublishError(c.Platform(), KindMalformed, err)
	}
	return parsed.ID, nil
}
