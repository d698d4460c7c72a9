package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/varoOP/shelfdb/internal/domain"
	"github.com/varoOP/shelfdb/internal/quota"
	"github.com/varoOP/shelfdb/internal/search"
)

// healthTimeout bounds the store ping on the health endpoint.
const healthTimeout = 5 * time.Second

// Pinger is the store surface the health endpoint needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds HTTP request handlers
type Handler struct {
	log    zerolog.Logger
	search search.Service
	saved  domain.SavedBookRepo
	quota  *quota.Tracker
	store  Pinger
}

// NewHandler creates a new handler instance
func NewHandler(log zerolog.Logger, searchService search.Service, saved domain.SavedBookRepo, tracker *quota.Tracker, store Pinger) *Handler {
	return &Handler{
		log:    log.With().Str("module", "api").Logger(),
		search: searchService,
		saved:  saved,
		quota:  tracker,
		store:  store,
	}
}

// Search proxies a search through the cache tiers.
func (h *Handler) Search(c *gin.Context) {
	q := domain.NormalizeQuery(c.Query("q"))
	if q == "" {
		abortJSON(c, http.StatusBadRequest, "Missing query parameter q")
		return
	}

	sess := sessionFrom(c)
	req := domain.SearchRequest{
		Query:       q,
		Page:        pageParam(c),
		PageSize:    pageSizeParam(c),
		PreferFresh: boolParam(c, "preferFresh"),
		SessionID:   sess.ID,
		UserID:      sess.UserID,
	}

	resp, err := h.search.Search(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("query", q).Msg("Search failed")
		abortJSON(c, http.StatusBadGateway, "Upstream search failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// LocalSearch queries the persistent store only.
func (h *Handler) LocalSearch(c *gin.Context) {
	q := domain.NormalizeQuery(c.Query("q"))

	resp, err := h.search.Local(c.Request.Context(), q, pageParam(c), pageSizeParam(c))
	if err != nil {
		h.log.Error().Err(err).Str("query", q).Msg("Local search failed")
		abortJSON(c, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CacheIngest accepts a batch of client-fetched items for upsert.
func (h *Handler) CacheIngest(c *gin.Context) {
	var body struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body.Items) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "no items"})
		return
	}

	cached, err := h.search.Ingest(c.Request.Context(), body.Items)
	if err != nil {
		h.log.Error().Err(err).Msg("Cache ingest failed")
		abortJSON(c, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok", "cached": cached})
}

type savedBookPayload struct {
	GoogleID      string          `json:"googleId"`
	Title         string          `json:"title"`
	Authors       []string        `json:"authors"`
	Cover         string          `json:"cover"`
	InfoLink      string          `json:"infoLink"`
	PublishedDate string          `json:"publishedDate"`
	AccessInfo    json.RawMessage `json:"accessInfo"`
}

// SaveBook stores a book on the signed-in user's shelf.
func (h *Handler) SaveBook(c *gin.Context) {
	sess := sessionFrom(c)
	if !sess.Authenticated() {
		abortJSON(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var body struct {
		Book *savedBookPayload `json:"book"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Book == nil {
		abortJSON(c, http.StatusBadRequest, "Missing book")
		return
	}

	book := domain.SavedBook{
		UserID:        sess.UserID,
		GoogleID:      body.Book.GoogleID,
		Title:         body.Book.Title,
		Authors:       body.Book.Authors,
		CoverURL:      body.Book.Cover,
		InfoLink:      body.Book.InfoLink,
		PublishedDate: body.Book.PublishedDate,
		AccessInfo:    body.Book.AccessInfo,
	}

	if err := h.saved.Save(c.Request.Context(), book); err != nil {
		h.log.Error().Err(err).Str("user_id", sess.UserID).Msg("Saving book failed")
		abortJSON(c, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// ListSavedBooks returns the signed-in user's shelf, most recent first.
func (h *Handler) ListSavedBooks(c *gin.Context) {
	sess := sessionFrom(c)
	if !sess.Authenticated() {
		abortJSON(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	books, err := h.saved.ListByUser(c.Request.Context(), sess.UserID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", sess.UserID).Msg("Listing saved books failed")
		abortJSON(c, http.StatusInternalServerError, "Server error")
		return
	}
	if books == nil {
		books = []domain.SavedBook{}
	}

	c.JSON(http.StatusOK, gin.H{"books": books})
}

// Me reports the caller's identity and quota state.
func (h *Handler) Me(c *gin.Context) {
	sess := sessionFrom(c)

	var userID any
	if sess.Authenticated() {
		userID = sess.UserID
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":       userID,
		"callsMade":    h.quota.Count(sess.ID),
		"callsAllowed": h.quota.Limit(),
	})
}

// Health pings the store.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func pageParam(c *gin.Context) int {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	return domain.ClampPage(page)
}

func pageSizeParam(c *gin.Context) int {
	size, _ := strconv.Atoi(c.DefaultQuery("per_page", "0"))
	return domain.ClampPageSize(size)
}

func boolParam(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || v == "true"
}
