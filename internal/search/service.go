// Package search implements the multi-tier search orchestrator: memory
// cache, then persistent store with a freshness window, then the anonymous
// quota, then the upstream API. Stale store hits are served immediately and
// refreshed by a detached background task.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shelfdb/internal/domain"
	"github.com/varoOP/shelfdb/internal/googlebooks"
	"github.com/varoOP/shelfdb/internal/memcache"
	"github.com/varoOP/shelfdb/internal/quota"
)

// backgroundRefreshTimeout bounds one detached refresh task end to end.
const backgroundRefreshTimeout = 30 * time.Second

type Service interface {
	// Search answers one request via the tier precedence. The only error it
	// returns is an upstream failure on the foreground fetch path.
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)

	// Local searches the persistent store only; upstream is never touched.
	Local(ctx context.Context, query string, page, pageSize int) (*domain.SearchResponse, error)

	// Ingest upserts a batch of externally fetched raw items, capped at
	// domain.MaxIngestItems. Returns the number of rows written.
	Ingest(ctx context.Context, items []json.RawMessage) (int, error)

	// Close waits for in-flight background refreshes to finish.
	Close()
}

type service struct {
	log      zerolog.Logger
	cfg      *domain.Config
	books    domain.BookRepo
	cache    *memcache.Cache
	quota    *quota.Tracker
	upstream googlebooks.Searcher

	refreshes sync.WaitGroup
}

func NewService(log zerolog.Logger, cfg *domain.Config, books domain.BookRepo, cache *memcache.Cache, tracker *quota.Tracker, upstream googlebooks.Searcher) Service {
	return &service{
		log:      log.With().Str("module", "search").Logger(),
		cfg:      cfg,
		books:    books,
		cache:    cache,
		quota:    tracker,
		upstream: upstream,
	}
}

func (s *service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	key := memcache.NewKey(req.Query, req.Page, req.PageSize)

	if !req.PreferFresh {
		if entry, ok := s.cache.Get(key); ok {
			searchesTotal.WithLabelValues(sourceMemory).Inc()
			return &domain.SearchResponse{
				Items:      entry.Items,
				TotalItems: entry.TotalItems,
				Page:       req.Page,
				PerPage:    req.PageSize,
				FromCache:  true,
			}, nil
		}

		if resp := s.serveFromStore(ctx, req, key); resp != nil {
			return resp, nil
		}
	}

	if !req.Authenticated() && !s.quota.Remaining(req.SessionID) {
		if resp := s.serveRateLimited(ctx, req); resp != nil {
			return resp, nil
		}
		// Store fallback failed; upstream is the last resort even though
		// the session is over quota.
	}

	return s.fetchUpstream(ctx, req, key)
}

// serveFromStore answers from the persistent tier when it has matching rows.
// A nil return means fall through to the next tier: no rows, or a store
// failure (treated as if no cached rows existed).
func (s *service) serveFromStore(ctx context.Context, req domain.SearchRequest, key memcache.Key) *domain.SearchResponse {
	records, total, err := s.books.Search(ctx, req.Query, req.PageSize, req.Offset())
	if err != nil {
		s.log.Warn().Err(err).Str("query", req.Query).Msg("Store lookup failed, falling through")
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	resp := &domain.SearchResponse{
		Items:      recordItems(records),
		TotalItems: total,
		Page:       req.Page,
		PerPage:    req.PageSize,
		FromCache:  true,
	}

	// Freshness is judged on the newest row of this page; rows come back
	// ordered fetched_at DESC.
	newest := records[0].FetchedAt
	if !newest.IsZero() && time.Since(newest) <= s.cfg.DBFreshWindow {
		searchesTotal.WithLabelValues(sourceDBFresh).Inc()
		return resp
	}

	s.spawnRefresh(req, key)
	searchesTotal.WithLabelValues(sourceDBStale).Inc()
	resp.Stale = true
	resp.BackgroundRefreshTriggered = true
	return resp
}

// spawnRefresh schedules a detached task that re-fetches the page, upserts
// the results and repopulates the memory cache. It is fire-and-forget:
// failures are logged and never reach the request that triggered it.
func (s *service) spawnRefresh(req domain.SearchRequest, key memcache.Key) {
	s.refreshes.Add(1)
	go func() {
		defer s.refreshes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
		defer cancel()

		page, err := s.upstream.Search(ctx, req.Query, req.Offset(), req.PageSize)
		if err != nil {
			upstreamCallsTotal.WithLabelValues("error").Inc()
			backgroundRefreshTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Str("query", req.Query).Msg("Background refresh failed")
			return
		}
		upstreamCallsTotal.WithLabelValues("ok").Inc()

		if _, err := s.books.UpsertMany(ctx, page.Items); err != nil {
			s.log.Warn().Err(err).Str("query", req.Query).Msg("Background refresh upsert failed")
		}

		s.cache.Put(key, compactItems(page.Items), page.TotalItems)
		backgroundRefreshTotal.WithLabelValues("ok").Inc()

		s.log.Debug().
			Str("query", req.Query).
			Int("page", req.Page).
			Int("items", len(page.Items)).
			Msg("Background refresh complete")
	}()
}

// serveRateLimited serves a best-effort page from the store for an over-quota
// anonymous session. Zero matches is still a valid answer. A nil return means
// the store itself failed and upstream remains the last resort.
func (s *service) serveRateLimited(ctx context.Context, req domain.SearchRequest) *domain.SearchResponse {
	records, total, err := s.books.Search(ctx, req.Query, req.PageSize, req.Offset())
	if err != nil {
		s.log.Warn().Err(err).Str("query", req.Query).Msg("Rate-limit store fallback failed")
		return nil
	}

	searchesTotal.WithLabelValues(sourceRateLimited).Inc()
	return &domain.SearchResponse{
		Items:       recordItems(records),
		TotalItems:  total,
		Page:        req.Page,
		PerPage:     req.PageSize,
		FromCache:   true,
		RateLimited: true,
		Message:     fmt.Sprintf("Anonymous rate limit reached (%d). Showing cached results.", s.quota.Limit()),
	}
}

// fetchUpstream performs the live upstream round trip, persisting the items
// and caching the compact projection. The quota counter is incremented for
// anonymous sessions on the line that dispatches, never elsewhere.
func (s *service) fetchUpstream(ctx context.Context, req domain.SearchRequest, key memcache.Key) (*domain.SearchResponse, error) {
	if !req.Authenticated() {
		s.quota.Increment(req.SessionID)
	}

	page, err := s.upstream.Search(ctx, req.Query, req.Offset(), req.PageSize)
	if err != nil {
		upstreamCallsTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "upstream search failed")
	}
	upstreamCallsTotal.WithLabelValues("ok").Inc()

	// The answer is already in hand; a write failure here is logged but must
	// not turn the response into an error.
	if _, err := s.books.UpsertMany(ctx, page.Items); err != nil {
		s.log.Warn().Err(err).Str("query", req.Query).Msg("Persisting fetched items failed")
	}

	items := compactItems(page.Items)
	s.cache.Put(key, items, page.TotalItems)

	searchesTotal.WithLabelValues(sourceUpstream).Inc()
	return &domain.SearchResponse{
		Items:      items,
		TotalItems: page.TotalItems,
		Page:       req.Page,
		PerPage:    req.PageSize,
		FromCache:  false,
	}, nil
}

func (s *service) Local(ctx context.Context, query string, page, pageSize int) (*domain.SearchResponse, error) {
	offset := (page - 1) * pageSize
	records, total, err := s.books.Search(ctx, query, pageSize, offset)
	if err != nil {
		return nil, errors.Wrap(err, "local search failed")
	}

	return &domain.SearchResponse{
		Items:      recordItems(records),
		TotalItems: total,
		Page:       page,
		PerPage:    pageSize,
	}, nil
}

func (s *service) Ingest(ctx context.Context, items []json.RawMessage) (int, error) {
	if len(items) > domain.MaxIngestItems {
		items = items[:domain.MaxIngestItems]
	}

	volumes := make([]domain.Volume, 0, len(items))
	for _, raw := range items {
		v, err := domain.ParseVolume(raw)
		if err != nil {
			s.log.Warn().Err(err).Msg("Skipping malformed ingest item")
			continue
		}
		if v.ID == "" {
			// Client-reported items sometimes omit the id; an industry
			// identifier is an acceptable stand-in key.
			v.ID = v.IndustryIdentifier()
		}
		volumes = append(volumes, v)
	}

	written, err := s.books.UpsertMany(ctx, volumes)
	if err != nil {
		return written, errors.Wrap(err, "ingest upsert failed")
	}

	return written, nil
}

func (s *service) Close() {
	s.refreshes.Wait()
}

func recordItems(records []domain.BookRecord) []json.RawMessage {
	items := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		items = append(items, r.Item())
	}
	return items
}

func compactItems(volumes []domain.Volume) []json.RawMessage {
	items := make([]json.RawMessage, 0, len(volumes))
	for _, v := range volumes {
		items = append(items, v.Compact())
	}
	return items
}
