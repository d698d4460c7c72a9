package domain

import (
	"encoding/json"
	"strings"
)

const (
	// DefaultPageSize is used when a request does not name a page size.
	DefaultPageSize = 20

	// MaxPageSize mirrors the upstream API ceiling of 40 results per call.
	MaxPageSize = 40

	// MaxQueryLen caps the accepted query text.
	MaxQueryLen = 200

	// MaxIngestItems caps one bulk /api/cache call.
	MaxIngestItems = 40
)

// SearchRequest is a fully validated search call into the orchestrator.
type SearchRequest struct {
	Query       string
	Page        int
	PageSize    int
	PreferFresh bool
	SessionID   string
	UserID      string
}

// Authenticated reports whether the caller carries a user identity and is
// therefore exempt from the anonymous upstream quota.
func (r SearchRequest) Authenticated() bool {
	return r.UserID != ""
}

// Offset converts 1-based page numbering to the store/upstream offset.
func (r SearchRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// SearchResponse is the answer to one search request, tagged with the source
// tier that actually produced it.
type SearchResponse struct {
	Items      []json.RawMessage `json:"items"`
	TotalItems int               `json:"totalItems"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	FromCache  bool              `json:"fromCache"`

	Stale                      bool   `json:"stale,omitempty"`
	BackgroundRefreshTriggered bool   `json:"backgroundRefreshTriggered,omitempty"`
	RateLimited                bool   `json:"rateLimited,omitempty"`
	Message                    string `json:"message,omitempty"`
}

// NormalizeQuery trims the raw query text, strips NUL and other control
// characters, and caps the length. An empty result means the request is
// invalid.
func NormalizeQuery(q string) string {
	q = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, q)
	q = strings.TrimSpace(q)
	if len(q) > MaxQueryLen {
		q = q[:MaxQueryLen]
	}
	return q
}

// ClampPage returns page bounded to >= 1.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampPageSize bounds a page size to 1..MaxPageSize, substituting the
// default for zero or negative values.
func ClampPageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}
