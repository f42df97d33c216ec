// Package nvd implements the vulnerability feed client, payload
// normalization and the incremental ingestion scheduler.
package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff"
)

// Window bounds an incremental fetch by last-modified timestamps.
type Window struct {
	Start time.Time
	End   time.Time
}

// RawItem is one feed entry; the inner CVE document is kept raw so the
// original payload can be retained for audit.
type RawItem struct {
	Cve json.RawMessage `json:"cve"`
}

// Page is one page of feed results.
type Page struct {
	ResultsPerPage  int       `json:"resultsPerPage"`
	StartIndex      int       `json:"startIndex"`
	TotalResults    int       `json:"totalResults"`
	Vulnerabilities []RawItem `json:"vulnerabilities"`
}

// Client talks to the NVD CVE API 2.0.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
}

// NewClient builds a feed client. An empty apiKey omits the header, which
// the feed accepts at a lower rate limit.
func NewClient(baseURL, apiKey string, pageSize int) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// timestampLayout is the ISO-8601 form the feed accepts for window bounds.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// FetchPage requests one page starting at startIndex, optionally bounded by
// a last-modified window. Transient failures (network, 5xx, 429) are retried
// a bounded number of times; other HTTP errors are returned immediately.
func (c *Client) FetchPage(ctx context.Context, startIndex int, window *Window) (*Page, error) {
	params := url.Values{}
	params.Set("startIndex", strconv.Itoa(startIndex))
	params.Set("resultsPerPage", strconv.Itoa(c.pageSize))
	if window != nil {
		params.Set("lastModStartDate", window.Start.UTC().Format(timestampLayout))
		params.Set("lastModEndDate", window.End.UTC().Format(timestampLayout))
	}

	reqURL := c.baseURL + "?" + params.Encode()

	var page *Page

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.apiKey != "" {
			req.Header.Set("apiKey", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			// fall through to decode
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("feed returned status %d", resp.StatusCode)
		default:
			io.Copy(io.Discard, resp.Body)
			return backoff.Permanent(fmt.Errorf("feed returned status %d", resp.StatusCode))
		}

		var decoded Page
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("decode feed page: %w", err))
		}
		page = &decoded
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, fmt.Errorf("fetch page at index %d: %w", startIndex, err)
	}
	return page, nil
}
