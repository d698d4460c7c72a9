// Package googlebooks wraps the upstream volumes search endpoint. It is a
// thin fetch layer: one call per page, no retries, failures surface to the
// caller.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shelfdb/internal/domain"
	"golang.org/x/time/rate"
)

// Page is one page of upstream search results.
type Page struct {
	Items      []domain.Volume
	TotalItems int
}

// Searcher is the upstream surface the orchestrator depends on.
type Searcher interface {
	Search(ctx context.Context, query string, startIndex, maxResults int) (*Page, error)
}

// Client talks to the volumes endpoint with a client-side throttle and a
// per-request timeout so one slow upstream call cannot hold a request or a
// background task indefinitely.
type Client struct {
	log     zerolog.Logger
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates an upstream client. ratePerSec bounds outgoing calls;
// zero or negative disables the throttle.
func NewClient(log zerolog.Logger, baseURL string, timeout time.Duration, ratePerSec float64) *Client {
	limit := rate.Inf
	burst := 1
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		if ratePerSec > 1 {
			burst = int(ratePerSec)
		}
	}

	return &Client{
		log:     log.With().Str("module", "googlebooks").Logger(),
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		limiter: rate.NewLimiter(limit, burst),
	}
}

type searchResponse struct {
	TotalItems int               `json:"totalItems"`
	Items      []json.RawMessage `json:"items"`
}

// Search fetches one page of results. maxResults is clamped to the
// documented upstream ceiling before dispatch.
func (c *Client) Search(ctx context.Context, query string, startIndex, maxResults int) (*Page, error) {
	if maxResults > domain.MaxPageSize {
		maxResults = domain.MaxPageSize
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if startIndex < 0 {
		startIndex = 0
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(startIndex))
	params.Set("maxResults", strconv.Itoa(maxResults))
	endpoint := c.baseURL + "/volumes?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	sr := &searchResponse{}
	if err := json.Unmarshal(body, sr); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}

	page := &Page{TotalItems: sr.TotalItems}
	for _, raw := range sr.Items {
		v, err := domain.ParseVolume(raw)
		if err != nil {
			c.log.Warn().Err(err).Msg("Skipping malformed upstream item")
			continue
		}
		page.Items = append(page.Items, v)
	}

	if page.TotalItems == 0 {
		page.TotalItems = len(page.Items)
	}

	c.log.Debug().
		Str("query", query).
		Int("start_index", startIndex).
		Int("items", len(page.Items)).
		Int("total_items", page.TotalItems).
		Msg("Fetched upstream page")

	return page, nil
}
