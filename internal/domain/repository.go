package domain

import "context"

// BookRepo defines the persistent item store operations.
type BookRepo interface {
	// UpsertMany inserts or replaces one row per volume, keyed on the
	// external id. Volumes without an id are skipped. Each row is written
	// independently; the count of rows actually written is returned and a
	// failed row does not abort the rest.
	UpsertMany(ctx context.Context, volumes []Volume) (int, error)

	// Search runs a case-insensitive substring match against title or the
	// serialized authors list, newest fetched_at first, returning one page
	// of rows plus the un-paged match count.
	Search(ctx context.Context, pattern string, limit, offset int) ([]BookRecord, int, error)
}

// SavedBookRepo stores a signed-in user's saved books.
type SavedBookRepo interface {
	Save(ctx context.Context, book SavedBook) error
	ListByUser(ctx context.Context, userID string) ([]SavedBook, error)
}

// IdentityVerifier maps a bearer credential to a user id. Authentication
// mechanics live outside this service; implementations are only the seam.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (string, bool)
}
