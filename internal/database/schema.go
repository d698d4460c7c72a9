package database

const schema = `
-- Persistent item cache: one row per unique external id.
CREATE TABLE books (
	google_id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	authors_json TEXT NOT NULL DEFAULT '[]',
	cover TEXT NOT NULL DEFAULT '',
	info_link TEXT NOT NULL DEFAULT '',
	raw_json TEXT,
	fetched_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_books_fetched_at ON books(fetched_at);
CREATE INDEX idx_books_title ON books(title);

-- Durable saved books per user.
CREATE TABLE saved_books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	google_id TEXT,
	title TEXT NOT NULL DEFAULT '',
	authors_json TEXT NOT NULL DEFAULT '[]',
	cover TEXT NOT NULL DEFAULT '',
	info_link TEXT NOT NULL DEFAULT '',
	published_date TEXT NOT NULL DEFAULT '',
	access_info_json TEXT,
	saved_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_saved_books_user ON saved_books(user_id, saved_at);
`

// migrations contains incremental schema changes
// Each migration is applied in order based on the current user_version
// migrations[0] is empty because version 0 uses the base schema
var migrations = []string{
	"",
}
