package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/shelfdb/internal/domain"
)

func TestSavedBookRepo_SaveAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewSavedBookRepo(zerolog.Nop(), db)
	ctx := context.Background()

	book := domain.SavedBook{
		UserID:        "alice",
		GoogleID:      "d1",
		Title:         "Dune",
		Authors:       []string{"Frank Herbert"},
		CoverURL:      "http://cover",
		InfoLink:      "http://info",
		PublishedDate: "1965",
		AccessInfo:    json.RawMessage(`{"viewability":"PARTIAL"}`),
	}
	require.NoError(t, repo.Save(ctx, book))

	books, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, books, 1)

	got := books[0]
	assert.NotZero(t, got.ID)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "d1", got.GoogleID)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, []string{"Frank Herbert"}, got.Authors)
	assert.Equal(t, "http://cover", got.CoverURL)
	assert.Equal(t, "http://info", got.InfoLink)
	assert.Equal(t, "1965", got.PublishedDate)
	assert.JSONEq(t, `{"viewability":"PARTIAL"}`, string(got.AccessInfo))
	assert.WithinDuration(t, time.Now(), got.SavedAt, time.Minute)
}

func TestSavedBookRepo_ListScopedToUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewSavedBookRepo(zerolog.Nop(), db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.SavedBook{UserID: "alice", GoogleID: "a1", Title: "Hers"}))
	require.NoError(t, repo.Save(ctx, domain.SavedBook{UserID: "bob", GoogleID: "b1", Title: "His"}))

	books, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "a1", books[0].GoogleID)

	books, err = repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestSavedBookRepo_ListMostRecentFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewSavedBookRepo(zerolog.Nop(), db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.SavedBook{UserID: "alice", GoogleID: "old", Title: "Older"}))
	require.NoError(t, repo.Save(ctx, domain.SavedBook{UserID: "alice", GoogleID: "new", Title: "Newer"}))

	backdated := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	_, err := db.handler.Exec("UPDATE saved_books SET saved_at = ? WHERE google_id = ?", backdated, "old")
	require.NoError(t, err)

	books, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "new", books[0].GoogleID)
	assert.Equal(t, "old", books[1].GoogleID)
}

func TestSavedBookRepo_SaveDefaultsEmptyAccessInfo(t *testing.T) {
	db := newTestDB(t)
	repo := NewSavedBookRepo(zerolog.Nop(), db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.SavedBook{UserID: "alice", GoogleID: "x", Title: "Bare"}))

	books, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.JSONEq(t, `{}`, string(books[0].AccessInfo))
}
