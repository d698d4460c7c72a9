package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shelfdb/internal/domain"
)

// SavedBookRepo implements domain.SavedBookRepo against the saved_books table.
type SavedBookRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewSavedBookRepo creates a new saved-books repository
func NewSavedBookRepo(log zerolog.Logger, db *DB) domain.SavedBookRepo {
	return &SavedBookRepo{
		log: log.With().Str("repo", "saved_books").Logger(),
		db:  db,
	}
}

// Save records one saved book for a user.
func (r *SavedBookRepo) Save(ctx context.Context, book domain.SavedBook) error {
	now := time.Now().UTC().Format(time.RFC3339)

	authorsJSON, err := json.Marshal(authorsOrEmpty(book.Authors))
	if err != nil {
		return errors.Wrap(err, "error encoding authors")
	}

	accessJSON := "{}"
	if len(book.AccessInfo) > 0 {
		accessJSON = string(book.AccessInfo)
	}

	queryBuilder := r.db.squirrel.
		Insert("saved_books").
		Columns("user_id", "google_id", "title", "authors_json", "cover", "info_link", "published_date", "access_info_json", "saved_at").
		Values(book.UserID, book.GoogleID, book.Title, string(authorsJSON), book.CoverURL, book.InfoLink, book.PublishedDate, accessJSON, now)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Save")

	_, err = r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// ListByUser returns a user's saved books, most recent first.
func (r *SavedBookRepo) ListByUser(ctx context.Context, userID string) ([]domain.SavedBook, error) {
	queryBuilder := r.db.squirrel.
		Select("id", "google_id", "title", "authors_json", "cover", "info_link", "published_date", "access_info_json", "saved_at").
		From("saved_books").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("saved_at DESC")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ListByUser")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var books []domain.SavedBook
	for rows.Next() {
		var (
			book        domain.SavedBook
			googleID    sql.NullString
			authorsJSON string
			accessJSON  sql.NullString
			savedAt     string
		)

		if err := rows.Scan(&book.ID, &googleID, &book.Title, &authorsJSON, &book.CoverURL, &book.InfoLink, &book.PublishedDate, &accessJSON, &savedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}

		book.UserID = userID
		book.GoogleID = googleID.String
		if err := json.Unmarshal([]byte(authorsJSON), &book.Authors); err != nil {
			book.Authors = nil
		}
		if accessJSON.Valid && accessJSON.String != "" {
			book.AccessInfo = json.RawMessage(accessJSON.String)
		}
		if t, err := time.Parse(time.RFC3339, savedAt); err == nil {
			book.SavedAt = t
		}

		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return books, nil
}
