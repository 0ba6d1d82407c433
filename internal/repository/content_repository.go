package repository

import (
	"encoding/json"
	"fmt"

	"study-highlights/internal/domain"
)

// ContentRepository reads devotions and study lessons from Supabase.
type ContentRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewContentRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) *ContentRepository {
	return &ContentRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func contentTable(kind domain.ContentKind) (string, error) {
	switch kind {
	case domain.ContentDevotion:
		return "devotions", nil
	case domain.ContentLesson:
		return "study_lessons", nil
	}
	return "", &domain.ValidationError{Field: "kind", Message: "unknown content kind " + string(kind)}
}

func (r *ContentRepository) GetByID(kind domain.ContentKind, id string, token string) (*domain.ContentItem, error) {
	table, err := contentTable(kind)
	if err != nil {
		return nil, err
	}

	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, classifyRemoteError("get client with token", err)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: supabase client not initialized", domain.ErrRemoteUnavailable)
	}

	data, _, err := client.From(table).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, classifyRemoteError("get "+string(kind), err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %w", domain.ErrRemoteUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrContentNotFound
	}

	return mapToContentItem(rows[0], kind), nil
}

// mapToContentItem normalizes devotion and lesson rows into one shape.
func mapToContentItem(data map[string]interface{}, kind domain.ContentKind) *domain.ContentItem {
	return &domain.ContentItem{
		ID:        getString(data, "id"),
		Kind:      kind,
		Title:     firstString(data, "title", "name", "heading"),
		Body:      firstString(data, "body", "content", "text", "lesson_text"),
		UpdatedAt: getTime(data, "updated_at", "created_at"),
	}
}
