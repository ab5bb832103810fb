// Package api issues authenticated requests against the remote learning
// platform and normalizes the responses into typed entities. It never
// mutates the content graph; inserting fetched entities is the caller's
// responsibility.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dcget/dc-downloader/internal/logger"
)

// Remote API endpoints.
const (
	HomePage        = "https://www.datacamp.com/"
	LoginDetailsURL = "https://www.datacamp.com/api/users/signed_in"
	ProfileDataURL  = "https://www.datacamp.com/api/public/users/%s"

	CourseDetailsURL   = "https://campus-api.datacamp.com/api/courses/%d/"
	ExerciseDetailsURL = "https://campus-api.datacamp.com/api/exercise/%d"
	VideoDetailsURL    = "https://projector.datacamp.com/api/videos/%s"
	ProgressURL        = "https://campus-api.datacamp.com/api/courses/%d/chapters/%d/progress"

	SkillTracksURL  = "https://learn-hub-api.datacamp.com/tracks/skill"
	CareerTracksURL = "https://learn-hub-api.datacamp.com/tracks/career"
)

// RequestTimeout bounds every platform API call.
const RequestTimeout = 30 * time.Second

// Transport is the opaque authenticated fetch capability the client builds
// on. Session bootstrapping (credential entry, challenge handling, cookie
// extraction) lives behind this interface.
type Transport interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPTransport authenticates requests with the stored session token sent as
// the platform's cookie header.
type HTTPTransport struct {
	token  string
	client *http.Client
}

// NewHTTPTransport creates a transport carrying the given auth token.
func NewHTTPTransport(token string) *HTTPTransport {
	return &HTTPTransport{
		token:  token,
		client: &http.Client{Timeout: RequestTimeout},
	}
}

// Fetch performs one authenticated GET and returns the raw body.
func (t *HTTPTransport) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("X-DC-Lang", "en")
	req.Header.Set("Referer", "https://app.datacamp.com/")
	if t.token != "" {
		req.Header.Set("Cookie", "_dct="+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("fetch %s: %w", url, ErrAuthentication)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return body, nil
}

// Client fetches single entities from the platform API.
type Client struct {
	transport Transport
	log       *logger.Logger
}

// NewClient wraps a transport.
func NewClient(transport Transport, log *logger.Logger) *Client {
	return &Client{transport: transport, log: log}
}

// preEnvelope matches JSON bodies the fetch collaborator hands back wrapped
// in an HTML <pre> tag.
var preEnvelope = regexp.MustCompile(`(?is)<pre[^>]*>(.*?)</pre>`)

// unwrapPre extracts the JSON payload from a <pre>-wrapped body, unescaping
// HTML entities. Bodies without the envelope pass through unchanged.
func unwrapPre(body []byte) []byte {
	if m := preEnvelope.FindSubmatch(body); m != nil {
		return []byte(html.UnescapeString(string(m[1])))
	}
	return body
}

// hasErrorKey reports whether a JSON object body carries the platform's
// explicit "error" marker. Array bodies never do.
func hasErrorKey(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return false
	}
	raw, ok := probe["error"]
	return ok && strings.TrimSpace(string(raw)) != "null"
}

// getJSON fetches url, unwraps any <pre> envelope and decodes the payload
// into v. An explicit "error" key in the body is surfaced as errOnMarker.
func (c *Client) getJSON(ctx context.Context, url string, v interface{}, errOnMarker error) error {
	body, err := c.transport.Fetch(ctx, url)
	if err != nil {
		return err
	}
	payload := unwrapPre(body)
	if errOnMarker != nil && hasErrorKey(payload) {
		return errOnMarker
	}
	if err := json.Unmarshal(bytes.TrimSpace(payload), v); err != nil {
		return &MalformedError{Kind: "json", Reason: "decode " + url, Err: err}
	}
	return nil
}
