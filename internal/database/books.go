package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/shelfdb/internal/domain"
)

// BookRepo implements domain.BookRepo against the books table.
type BookRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewBookRepo creates a new book repository
func NewBookRepo(log zerolog.Logger, db *DB) domain.BookRepo {
	return &BookRepo{
		log: log.With().Str("repo", "books").Logger(),
		db:  db,
	}
}

// UpsertMany writes one row per volume keyed on google_id, replacing existing
// rows and stamping fetched_at. Volumes without an id are skipped. Rows are
// written independently so a failure on one item never discards the rest; the
// first failure is reported after all items were attempted.
func (r *BookRepo) UpsertMany(ctx context.Context, volumes []domain.Volume) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	var (
		written  int
		firstErr error
	)

	for _, v := range volumes {
		if v.ID == "" {
			continue
		}

		if err := r.upsert(ctx, v, now); err != nil {
			r.log.Warn().Err(err).Str("google_id", v.ID).Msg("upsert failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written++
	}

	return written, firstErr
}

func (r *BookRepo) upsert(ctx context.Context, v domain.Volume, now string) error {
	authorsJSON, err := json.Marshal(authorsOrEmpty(v.Authors))
	if err != nil {
		return errors.Wrap(err, "error encoding authors")
	}

	queryBuilder := r.db.squirrel.
		Replace("books").
		Columns("google_id", "title", "authors_json", "cover", "info_link", "raw_json", "fetched_at").
		Values(v.ID, v.Title, string(authorsJSON), v.CoverURL, v.InfoLink, string(v.Raw), now)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("UpsertMany")

	_, err = r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// Search matches the pattern as a case-insensitive substring of the title or
// the serialized authors list, most recently fetched first. The returned
// count ignores pagination.
func (r *BookRepo) Search(ctx context.Context, pattern string, limit, offset int) ([]domain.BookRecord, int, error) {
	like := "%" + strings.ToLower(pattern) + "%"
	match := sq.Or{
		sq.Expr("LOWER(title) LIKE ?", like),
		sq.Expr("LOWER(authors_json) LIKE ?", like),
	}

	queryBuilder := r.db.squirrel.
		Select("google_id", "title", "authors_json", "cover", "info_link", "raw_json", "fetched_at").
		From("books").
		Where(match).
		OrderBy("fetched_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Search")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var records []domain.BookRecord
	for rows.Next() {
		record, err := scanBook(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "error scanning row")
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "error iterating rows")
	}

	total, err := r.count(ctx, match)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *BookRepo) count(ctx context.Context, match sq.Sqlizer) (int, error) {
	queryBuilder := r.db.squirrel.
		Select("COUNT(*)").
		From("books").
		Where(match)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building count query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Search count")

	var total int
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "error executing count query")
	}

	return total, nil
}

func scanBook(rows *sql.Rows) (domain.BookRecord, error) {
	var (
		record      domain.BookRecord
		authorsJSON string
		rawJSON     sql.NullString
		fetchedAt   string
	)

	if err := rows.Scan(&record.GoogleID, &record.Title, &authorsJSON, &record.CoverURL, &record.InfoLink, &rawJSON, &fetchedAt); err != nil {
		return domain.BookRecord{}, err
	}

	if err := json.Unmarshal([]byte(authorsJSON), &record.Authors); err != nil {
		record.Authors = nil
	}
	if rawJSON.Valid && rawJSON.String != "" {
		record.Raw = json.RawMessage(rawJSON.String)
	}
	if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
		record.FetchedAt = t
	}

	return record, nil
}

func authorsOrEmpty(authors []string) []string {
	if authors == nil {
		return []string{}
	}
	return authors
}
