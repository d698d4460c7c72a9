package domain

import (
	"encoding/json"
	"time"
)

// Volume is one book record as returned by the upstream metadata API.
// Raw holds the verbatim upstream document so it can be re-served losslessly;
// the discrete fields are the projection used for storage and substring
// search. VolumeInfo and AccessInfo are the untouched sub-documents used to
// build the compact cache representation.
type Volume struct {
	ID            string
	Title         string
	Authors       []string
	PublishedDate string
	CoverURL      string
	InfoLink      string
	VolumeInfo    json.RawMessage
	AccessInfo    json.RawMessage
	Raw           json.RawMessage
}

type volumeEnvelope struct {
	ID         string          `json:"id"`
	VolumeInfo json.RawMessage `json:"volumeInfo,omitempty"`
	AccessInfo json.RawMessage `json:"accessInfo,omitempty"`
}

type volumeInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	PublishedDate string   `json:"publishedDate"`
	InfoLink      string   `json:"infoLink"`
	ImageLinks    struct {
		Thumbnail      string `json:"thumbnail"`
		SmallThumbnail string `json:"smallThumbnail"`
	} `json:"imageLinks"`
}

// ParseVolume extracts the searchable projection from a raw upstream item.
// A document that is not valid JSON yields an error; missing fields are left
// zero so items without an id can still be returned to the caller even though
// they are never persisted.
func ParseVolume(raw json.RawMessage) (Volume, error) {
	var env volumeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Volume{}, err
	}

	v := Volume{
		ID:         env.ID,
		VolumeInfo: env.VolumeInfo,
		AccessInfo: env.AccessInfo,
		Raw:        raw,
	}

	if len(env.VolumeInfo) > 0 {
		var info volumeInfo
		if err := json.Unmarshal(env.VolumeInfo, &info); err == nil {
			v.Title = info.Title
			v.Authors = info.Authors
			v.PublishedDate = info.PublishedDate
			v.InfoLink = info.InfoLink
			v.CoverURL = info.ImageLinks.Thumbnail
			if v.CoverURL == "" {
				v.CoverURL = info.ImageLinks.SmallThumbnail
			}
		}
	}

	return v, nil
}

// Compact returns the trimmed representation kept in the memory cache and
// served on live-fetch responses: id plus the verbatim volumeInfo and
// accessInfo sub-documents.
func (v Volume) Compact() json.RawMessage {
	b, err := json.Marshal(volumeEnvelope{
		ID:         v.ID,
		VolumeInfo: v.VolumeInfo,
		AccessInfo: v.AccessInfo,
	})
	if err != nil {
		return v.Raw
	}
	return b
}

// IndustryIdentifier returns the first industry identifier (ISBN etc.) from
// the volumeInfo sub-document, or empty when none is present.
func (v Volume) IndustryIdentifier() string {
	if len(v.VolumeInfo) == 0 {
		return ""
	}
	var info struct {
		IndustryIdentifiers []struct {
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
	}
	if err := json.Unmarshal(v.VolumeInfo, &info); err != nil {
		return ""
	}
	if len(info.IndustryIdentifiers) == 0 {
		return ""
	}
	return info.IndustryIdentifiers[0].Identifier
}

// BookRecord is one row of the persistent item store.
type BookRecord struct {
	GoogleID  string
	Title     string
	Authors   []string
	CoverURL  string
	InfoLink  string
	Raw       json.RawMessage
	FetchedAt time.Time
}

// Item maps a stored row back to a result document. A valid raw payload is
// returned verbatim so fields not covered by the discrete columns survive the
// round trip; otherwise a minimal document is synthesized from the columns,
// with a best-effort publishedDate pulled out of whatever raw content exists.
func (r BookRecord) Item() json.RawMessage {
	if len(r.Raw) > 0 && json.Valid(r.Raw) {
		return r.Raw
	}

	var published string
	if len(r.Raw) > 0 {
		var env volumeEnvelope
		if err := json.Unmarshal(r.Raw, &env); err == nil && len(env.VolumeInfo) > 0 {
			var info volumeInfo
			if err := json.Unmarshal(env.VolumeInfo, &info); err == nil {
				published = info.PublishedDate
			}
		}
	}

	authors := r.Authors
	if authors == nil {
		authors = []string{}
	}

	doc := map[string]any{
		"id": r.GoogleID,
		"volumeInfo": map[string]any{
			"title":         r.Title,
			"authors":       authors,
			"imageLinks":    map[string]any{"thumbnail": r.CoverURL},
			"infoLink":      r.InfoLink,
			"publishedDate": published,
		},
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

// SavedBook is a book a signed-in user chose to keep.
type SavedBook struct {
	ID            int64           `json:"id"`
	UserID        string          `json:"-"`
	GoogleID      string          `json:"googleId"`
	Title         string          `json:"title"`
	Authors       []string        `json:"authors"`
	CoverURL      string          `json:"cover"`
	InfoLink      string          `json:"infoLink"`
	PublishedDate string          `json:"publishedDate"`
	AccessInfo    json.RawMessage `json:"accessInfo,omitempty"`
	SavedAt       time.Time       `json:"savedAt"`
}
