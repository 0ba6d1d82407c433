package repository

import (
	"errors"
	"testing"
	"time"

	"study-highlights/internal/domain"

	"github.com/supabase-community/supabase-go"
)

type mockSupabaseClient struct {
	err error
}

func (m *mockSupabaseClient) Initialize() error { return nil }

func (m *mockSupabaseClient) ValidateToken(token string) (*domain.SupabaseUser, error) {
	return nil, errors.New("not implemented")
}

func (m *mockSupabaseClient) GetClientWithToken(token string) (*supabase.Client, error) {
	return nil, m.err
}

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...interface{})             {}
func (nopLogger) Error(msg string, err error, fields ...interface{}) {}
func (nopLogger) Debug(msg string, fields ...interface{})            {}
func (nopLogger) Warn(msg string, fields ...interface{})             {}

func TestMapToHighlight_CanonicalColumns(t *testing.T) {
	row := map[string]interface{}{
		"id":              "hl-1",
		"content_item_id": "lesson-1",
		"user_id":         "user-1",
		"range_start":     float64(4),
		"range_length":    float64(6),
		"selected_text":   "quoted",
		"color":           "Green",
		"visibility":      "group",
		"note":            "see also",
		"created_at":      "2024-03-01T12:00:00.123456+00:00",
	}

	h := mapToHighlight(row)

	if h.ID != "hl-1" || h.ContentItemID != "lesson-1" || h.OwnerID != "user-1" {
		t.Errorf("unexpected identity fields: %+v", h)
	}
	if h.RangeStart != 4 || h.RangeLength != 6 || h.SelectedText != "quoted" {
		t.Errorf("unexpected range fields: %+v", h)
	}
	if h.Color != domain.ColorGreen || h.Visibility != domain.VisibilityGroup {
		t.Errorf("unexpected presentation: %s %s", h.Color, h.Visibility)
	}
	if h.Note == nil || *h.Note != "see also" {
		t.Errorf("unexpected note: %v", h.Note)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.UTC)
	if !h.CreatedAt.Equal(want) {
		t.Errorf("expected created_at %v, got %v", want, h.CreatedAt)
	}
}

func TestMapToHighlight_AlternateColumns(t *testing.T) {
	row := map[string]interface{}{
		"id":              float64(42),
		"devotion_id":     "dev-7",
		"author_id":       "user-9",
		"start_offset":    "10",
		"end_offset":      float64(25),
		"quote":           "from the devotion",
		"highlight_color": "purple",
		"share_scope":     "leaders",
	}

	h := mapToHighlight(row)

	if h.ID != "42" || h.ContentItemID != "dev-7" || h.OwnerID != "user-9" {
		t.Errorf("unexpected identity fields: %+v", h)
	}
	if h.RangeStart != 10 || h.RangeLength != 15 {
		t.Errorf("expected range derived from end offset, got start=%d length=%d", h.RangeStart, h.RangeLength)
	}
	if h.SelectedText != "from the devotion" || h.Color != domain.ColorPurple || h.Visibility != domain.VisibilityLeaders {
		t.Errorf("unexpected fields: %+v", h)
	}
	if h.Note != nil {
		t.Errorf("expected no note, got %q", *h.Note)
	}
}

func TestMapToHighlight_UnknownPresentationDefaults(t *testing.T) {
	h := mapToHighlight(map[string]interface{}{"id": "x", "color": "chartreuse", "visibility": "everyone"})
	if h.Color != domain.ColorYellow || h.Visibility != domain.VisibilityPrivate {
		t.Errorf("expected defaults, got %s %s", h.Color, h.Visibility)
	}
}

func TestMapToContentItem(t *testing.T) {
	item := mapToContentItem(map[string]interface{}{
		"id":          "lesson-1",
		"name":        "Week one",
		"lesson_text": "Read this.",
		"updated_at":  "2024-03-01T12:00:00Z",
	}, domain.ContentLesson)

	if item.ID != "lesson-1" || item.Kind != domain.ContentLesson {
		t.Errorf("unexpected identity: %+v", item)
	}
	if item.Title != "Week one" || item.Body != "Read this." {
		t.Errorf("unexpected text fields: %+v", item)
	}
	if item.UpdatedAt.IsZero() {
		t.Errorf("expected updated_at to be parsed")
	}
}

func TestClassifyRemoteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "rls violation", err: errors.New(`(42501) new row violates row-level security policy`), want: domain.ErrUnauthorized},
		{name: "expired jwt", err: errors.New("JWT expired"), want: domain.ErrUnauthorized},
		{name: "postgrest auth code", err: errors.New("PGRST301: JWSError"), want: domain.ErrUnauthorized},
		{name: "invalid token", err: domain.ErrInvalidToken, want: domain.ErrUnauthorized},
		{name: "network", err: errors.New("dial tcp: connection refused"), want: domain.ErrRemoteUnavailable},
		{name: "already classified", err: domain.ErrUnauthorized, want: domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRemoteError("do thing", tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("expected original error to stay in the chain, got %v", got)
			}
		})
	}

	if classifyRemoteError("do thing", nil) != nil {
		t.Errorf("expected nil for nil error")
	}
}

func TestSanitizeText(t *testing.T) {
	if got := sanitizeText("a\x00b\\u0000c"); got != "abc" {
		t.Errorf("expected NUL bytes removed, got %q", got)
	}
}

func TestRepositories_UninitializedClient(t *testing.T) {
	client := &mockSupabaseClient{}
	highlights := NewHighlightRepository(client, nopLogger{})
	content := NewContentRepository(client, nopLogger{})

	if _, err := highlights.FetchByContentItems([]string{"item-1"}, "token"); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Errorf("expected remote unavailable on fetch, got %v", err)
	}
	if _, err := highlights.Create(&domain.Highlight{ContentItemID: "item-1"}, "token"); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Errorf("expected remote unavailable on create, got %v", err)
	}
	if err := highlights.Delete("hl-1", "token"); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Errorf("expected remote unavailable on delete, got %v", err)
	}
	if _, err := content.GetByID(domain.ContentDevotion, "dev-1", "token"); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Errorf("expected remote unavailable on content read, got %v", err)
	}
}

func TestRepositories_RejectedToken(t *testing.T) {
	client := &mockSupabaseClient{err: domain.ErrInvalidToken}
	highlights := NewHighlightRepository(client, nopLogger{})

	if err := highlights.Delete("hl-1", "token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestHighlightRepository_FetchNoIDs(t *testing.T) {
	highlights := NewHighlightRepository(&mockSupabaseClient{}, nopLogger{})

	out, err := highlights.FetchByContentItems(nil, "token")
	if err != nil || len(out) != 0 {
		t.Errorf("expected empty result without a backend call, got %v, %v", out, err)
	}
}

func TestContentRepository_UnknownKind(t *testing.T) {
	content := NewContentRepository(&mockSupabaseClient{}, nopLogger{})

	_, err := content.GetByID(domain.ContentKind("podcast"), "x", "token")
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected validation error, got %v", err)
	}
}
