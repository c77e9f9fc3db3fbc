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

	"github.com/Alksalt/llm-social-agent/internal/diary"
)

const defaultLinkedInBase = "https://api.linkedin.com/v2"

// LinkedInClient posts UGC shares on behalf of a member.
type LinkedInClient struct {
	base       string
	httpClient *http.Client
}

var _ Publisher = (*LinkedInClient)(nil)

func NewLinkedInClient(timeout time.Duration) *LinkedInClient {
	base := defaultLinkedInBase
	if v := strings.TrimSpace(os.Getenv("LINKEDIN_API_BASE_URL")); v != "" {
		base = strings.TrimRight(v, "/")
	}
	return &LinkedInClient{
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *LinkedInClient) Platform() diary.Platform { return diary.PlatformLinkedIn }

func (c *LinkedInClient) Publish(ctx context.Context, text string, dryRun bool) (*Result, error) {
	if dryRun {
		return dryRunResult(c.Platform()), nil
	}

	token := os.Getenv("LINKEDIN_ACCESS_TOKEN")
	if token == "" {
		return nil, newPublishError(c.Platform(), KindMissingCreds, errors.New("LINKEDIN_ACCESS_TOKEN not set"))
	}
	author, err := c.resolveAuthorURN(ctx, token)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"author":         author,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": text},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newPublishError(c.Platform(), KindHTTPError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return nil, newPublishError(c.Platform(), KindHTTPError, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newPublishError(c.Platform(), requestErrKind(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newPublishError(c.Platform(), KindHTTPError, httpError(resp))
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, newPublishError(c.Platform(), KindMalformed, err)
	}

	return &Result{Success: true, ExternalID: parsed.ID}, nil
}

// resolveAuthorURN prefers LINKEDIN_PERSON_URN; otherwise it asks the
// userinfo endpoint for the member id.
func (c *LinkedInClient) resolveAuthorURN(ctx context.Context, token string) (string, error) {
	if urn := normalizePersonURN(os.Getenv("LINKEDIN_PERSON_URN")); urn != "" {
		return urn, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/userinfo", nil)
	if err != nil {
		return "", newPublishError(c.Platform(), KindHTTPError, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newPublishError(c.Platform(), requestErrKind(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", newPublishError(c.Platform(), KindMissingCreds,
			errors.New("LINKEDIN_PERSON_URN not set and userinfo lookup failed"))
	}

	var parsed struct {
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", newPublishError(c.Platform(), KindMalformed, err)
	}
	urn := normalizePersonURN(parsed.Sub)
	if urn == "" {
		return "", newPublishError(c.Platform(), KindMissingCreds, errors.New("userinfo returned no member id"))
	}
	return urn, nil
}

func normalizePersonURN(value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "urn:li:person:") {
		return raw
	}
	return "urn:li:person:" + raw
}
