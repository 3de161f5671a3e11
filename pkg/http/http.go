package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/glorpus-work/hdrget/pkg/errors"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "hdrget/1.0"

// maxMetadataBytes bounds JSON and text bodies read into memory.
const maxMetadataBytes = 4 << 20

// HTTPClient performs the small metadata requests made against the catalog
// API and the release version file.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewHTTPClient creates a client whose requests time out after timeout.
func NewHTTPClient(timeout time.Duration, userAgent string) *HTTPClient {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// UserAgent returns the User-Agent header value sent with every request.
func (hc *HTTPClient) UserAgent() string {
	return hc.userAgent
}

// GetJSON fetches rawURL and decodes the JSON body into v.
// Any status other than 200 is reported as ErrUnexpectedReply.
func (hc *HTTPClient) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := hc.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(errors.ErrUnexpectedReply, "decode %s: %v", rawURL, err)
	}
	return nil
}

// GetText fetches rawURL and returns the body with surrounding whitespace
// removed.
func (hc *HTTPClient) GetText(ctx context.Context, rawURL string) (string, error) {
	body, err := hc.get(ctx, rawURL, "text/plain")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (hc *HTTPClient) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidURL, err.Error())
	}
	req.Header.Set("User-Agent", hc.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := hc.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d from %s", errors.ErrUnexpectedReply, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}
	return body, nil
}
