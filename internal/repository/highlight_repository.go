package repository

import (
	"encoding/json"
	"fmt"

	"study-highlights/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

const highlightsTable = "highlights"

// HighlightRepository implements the domain.HighlightRepository interface using Supabase.
type HighlightRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewHighlightRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) *HighlightRepository {
	return &HighlightRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// FetchByContentItems returns every highlight the caller can see on the given
// content items, oldest first. Row-level security decides which rows that is.
func (r *HighlightRepository) FetchByContentItems(contentItemIDs []string, token string) ([]*domain.Highlight, error) {
	out := make([]*domain.Highlight, 0)
	if len(contentItemIDs) == 0 {
		return out, nil
	}

	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, classifyRemoteError("get client with token", err)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: supabase client not initialized", domain.ErrRemoteUnavailable)
	}

	data, _, err := client.From(highlightsTable).
		Select("*", "", false).
		In("content_item_id", contentItemIDs).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, classifyRemoteError("list highlights", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %w", domain.ErrRemoteUnavailable, err)
	}

	for _, row := range rows {
		out = append(out, mapToHighlight(row))
	}
	r.logger.Debug("Fetched highlights", "content_items", len(contentItemIDs), "rows", len(out))
	return out, nil
}

// Create inserts a highlight. The backend assigns id, user_id and created_at.
func (r *HighlightRepository) Create(highlight *domain.Highlight, token string) (*domain.Highlight, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, classifyRemoteError("get client with token", err)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: supabase client not initialized", domain.ErrRemoteUnavailable)
	}

	row := map[string]interface{}{
		"content_item_id": highlight.ContentItemID,
		"range_start":     highlight.RangeStart,
		"range_length":    highlight.RangeLength,
		"selected_text":   sanitizeText(highlight.SelectedText),
		"color":           string(highlight.Color),
		"visibility":      string(highlight.Visibility),
	}
	if highlight.OwnerID != "" {
		row["user_id"] = highlight.OwnerID
	}
	if highlight.Note != nil {
		row["note"] = sanitizeText(*highlight.Note)
	}

	// Request "representation" so PostgREST returns the inserted row.
	data, _, err := client.From(highlightsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, classifyRemoteError("create highlight", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %w", domain.ErrRemoteUnavailable, err)
	}
	if len(rows) == 0 {
		// RLS filtered the returned row: the insert was not allowed for this caller.
		return nil, fmt.Errorf("failed to create highlight: %w", domain.ErrUnauthorized)
	}

	return mapToHighlight(rows[0]), nil
}

// Delete removes a highlight. Only the author may delete; the backend
// enforces that, and a delete that matched no row is reported as
// domain.ErrUnauthorized.
func (r *HighlightRepository) Delete(highlightID string, token string) error {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return classifyRemoteError("get client with token", err)
	}
	if client == nil {
		return fmt.Errorf("%w: supabase client not initialized", domain.ErrRemoteUnavailable)
	}

	data, _, err := client.From(highlightsTable).
		Delete("representation", "").
		Eq("id", highlightID).
		Execute()
	if err != nil {
		return classifyRemoteError("delete highlight", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: failed to unmarshal response: %w", domain.ErrRemoteUnavailable, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("failed to delete highlight %s: %w", highlightID, domain.ErrUnauthorized)
	}
	return nil
}

// mapToHighlight is the single place that knows the column spellings used
// for highlights across the devotion and study-lesson tables.
func mapToHighlight(data map[string]interface{}) *domain.Highlight {
	h := &domain.Highlight{
		ID:            getString(data, "id"),
		ContentItemID: firstString(data, "content_item_id", "devotion_id", "lesson_id", "study_lesson_id"),
		OwnerID:       firstString(data, "user_id", "owner_id", "author_id"),
		SelectedText:  firstString(data, "selected_text", "quote", "text"),
		Note:          getStringPointer(data, "note"),
		CreatedAt:     getTime(data, "created_at", "inserted_at"),
	}

	if start, ok := firstInt(data, "range_start", "start_offset", "start"); ok {
		h.RangeStart = start
	}
	if length, ok := firstInt(data, "range_length", "length"); ok {
		h.RangeLength = length
	} else if end, ok := firstInt(data, "end_offset", "range_end"); ok {
		h.RangeLength = end - h.RangeStart
	}

	if color, err := domain.ParseColor(firstString(data, "color", "highlight_color")); err == nil {
		h.Color = color
	} else {
		h.Color = domain.ColorYellow
	}
	if visibility, err := domain.ParseVisibility(firstString(data, "visibility", "share_scope")); err == nil {
		h.Visibility = visibility
	} else {
		h.Visibility = domain.VisibilityPrivate
	}

	return h
}
