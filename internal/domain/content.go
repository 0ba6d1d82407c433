package domain

import (
	"context"
	"strings"
	"time"
)

// ContentKind identifies which backend table a content item lives in.
type ContentKind string

const (
	ContentDevotion ContentKind = "devotion"
	ContentLesson   ContentKind = "lesson"
)

// ParseContentKind accepts singular and plural spellings.
func ParseContentKind(s string) (ContentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "devotion", "devotions":
		return ContentDevotion, nil
	case "lesson", "lessons", "study_lesson", "study_lessons":
		return ContentLesson, nil
	}
	return "", &ValidationError{Field: "kind", Message: "unknown content kind " + s}
}

// ContentItem is a block of text that can carry highlights. Body is the
// canonical text every offset is measured against.
type ContentItem struct {
	ID        string      `json:"id"`
	Kind      ContentKind `json:"kind"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// ContentRepository reads content items from the remote backend.
type ContentRepository interface {
	GetByID(kind ContentKind, id string, token string) (*ContentItem, error)
}

// ContentCache keeps recently read content bodies close to the service.
// Entries are scoped to the user that read them because row-level security
// decides who may see a body.
type ContentCache interface {
	Get(ctx context.Context, userID string, kind ContentKind, id string) (*ContentItem, bool, error)
	Set(ctx context.Context, userID string, item *ContentItem) error
	Close() error
}
