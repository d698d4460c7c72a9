package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(zerolog.Nop(), srv.URL, 5*time.Second, 0)
}

func TestClient_Search(t *testing.T) {
	var gotQuery, gotStart, gotMax string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotStart = r.URL.Query().Get("startIndex")
		gotMax = r.URL.Query().Get("maxResults")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"totalItems": 123,
			"items": [
				{"id": "a", "volumeInfo": {"title": "Dune", "authors": ["Frank Herbert"]}},
				{"id": "b", "volumeInfo": {"title": "Dune Messiah"}}
			]
		}`))
	})

	page, err := c.Search(context.Background(), "dune", 20, 20)
	require.NoError(t, err)

	assert.Equal(t, "dune", gotQuery)
	assert.Equal(t, "20", gotStart)
	assert.Equal(t, "20", gotMax)

	assert.Equal(t, 123, page.TotalItems)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].ID)
	assert.Equal(t, "Dune", page.Items[0].Title)
	assert.Equal(t, []string{"Frank Herbert"}, page.Items[0].Authors)
}

func TestClient_SearchClampsParameters(t *testing.T) {
	var gotStart, gotMax string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("startIndex")
		gotMax = r.URL.Query().Get("maxResults")
		w.Write([]byte(`{"totalItems": 0, "items": []}`))
	})

	_, err := c.Search(context.Background(), "dune", -5, 100)
	require.NoError(t, err)

	assert.Equal(t, "0", gotStart)
	assert.Equal(t, "40", gotMax)
}

func TestClient_SearchUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	page, err := c.Search(context.Background(), "dune", 0, 20)
	require.Error(t, err)
	assert.Nil(t, page)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_SearchSkipsMalformedItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalItems": 2, "items": [
			"not an object",
			{"id": "ok", "volumeInfo": {"title": "Kept"}}
		]}`))
	})

	page, err := c.Search(context.Background(), "dune", 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ok", page.Items[0].ID)
}

func TestClient_SearchTotalItemsFallsBackToItemCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"id": "a"}, {"id": "b"}]}`))
	})

	page, err := c.Search(context.Background(), "dune", 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)
}
