package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"study-highlights/internal/domain"

	"github.com/google/uuid"
)

// HighlightService turns highlight gestures into backend calls. Every
// mutation is applied to the caller's HighlightStore first and rolled back
// when the backend rejects it.
type HighlightService struct {
	repo         domain.HighlightRepository
	contentRepo  domain.ContentRepository
	contentCache domain.ContentCache
	stores       *StoreRegistry
	logger       domain.Logger

	now   func() time.Time
	newID func() string
}

func NewHighlightService(
	repo domain.HighlightRepository,
	contentRepo domain.ContentRepository,
	contentCache domain.ContentCache,
	logger domain.Logger,
) *HighlightService {
	return &HighlightService{
		repo:         repo,
		contentRepo:  contentRepo,
		contentCache: contentCache,
		stores:       NewStoreRegistry(),
		logger:       logger,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
	}
}

// LoadHighlights refreshes the caller's cache for the given content items.
func (s *HighlightService) LoadHighlights(userID string, contentItemIDs []string, token string) (map[string][]*domain.Highlight, error) {
	store := s.stores.For(userID)
	out, err := store.Load(contentItemIDs, func(ids []string) ([]*domain.Highlight, error) {
		return s.repo.FetchByContentItems(ids, token)
	})
	if err != nil {
		s.logger.Error("Failed to load highlights", err, "user_id", userID, "content_items", len(contentItemIDs))
		return nil, err
	}
	return out, nil
}

// CreateHighlight records a highlight over rng of a content item. The
// highlight is visible in the store before the backend answers.
func (s *HighlightService) CreateHighlight(
	userID string,
	contentItemID string,
	rng domain.TextRange,
	text string,
	meta domain.HighlightMetadata,
	token string,
) (*domain.Highlight, error) {
	if contentItemID == "" {
		return nil, &domain.ValidationError{Field: "content_item_id", Message: "is required"}
	}
	if rng.Start < 0 || rng.Len() <= 0 {
		return nil, &domain.ValidationError{Field: "range", Message: "must cover at least one character"}
	}
	color, err := domain.ParseColor(string(meta.Color))
	if err != nil {
		return nil, err
	}
	visibility, err := domain.ParseVisibility(string(meta.Visibility))
	if err != nil {
		return nil, err
	}

	placeholder := &domain.Highlight{
		ID:            pendingIDPrefix + s.newID(),
		ContentItemID: contentItemID,
		OwnerID:       userID,
		RangeStart:    rng.Start,
		RangeLength:   rng.Len(),
		SelectedText:  text,
		Color:         color,
		Visibility:    visibility,
		Note:          normalizeNote(meta.Note),
		CreatedAt:     s.now(),
	}

	store := s.stores.For(userID)
	store.Upsert(contentItemID, placeholder)

	request := *placeholder
	request.ID = ""
	created, err := s.repo.Create(&request, token)
	if err == nil && created == nil {
		err = fmt.Errorf("failed to create highlight: %w: backend returned no row", domain.ErrRemoteUnavailable)
	}
	if err != nil {
		store.Remove(contentItemID, placeholder.ID)
		s.logger.Error("Failed to create highlight", err, "user_id", userID, "content_item_id", contentItemID)
		return nil, err
	}
	if created.ContentItemID == "" {
		created.ContentItemID = contentItemID
	}
	store.Replace(contentItemID, placeholder.ID, created)

	s.logger.Info("Highlight created", "user_id", userID, "content_item_id", contentItemID, "highlight_id", created.ID)
	return created, nil
}

// DeleteHighlight removes a highlight. Ownership is not checked here; the
// backend rejects deletes by anyone but the author and the removed entry is
// put back.
func (s *HighlightService) DeleteHighlight(userID string, highlightID string, token string) error {
	if highlightID == "" {
		return &domain.ValidationError{Field: "highlight_id", Message: "is required"}
	}
	if isPendingID(highlightID) {
		return &domain.ValidationError{Field: "highlight_id", Message: "highlight is still being saved"}
	}

	store := s.stores.For(userID)
	contentItemID, index, removed, found := store.Find(highlightID)
	if found {
		store.Remove(contentItemID, highlightID)
	}

	if err := s.repo.Delete(highlightID, token); err != nil {
		if found {
			store.InsertAt(contentItemID, index, removed)
		}
		s.logger.Error("Failed to delete highlight", err, "user_id", userID, "highlight_id", highlightID)
		return err
	}

	s.logger.Info("Highlight deleted", "user_id", userID, "highlight_id", highlightID)
	return nil
}

// HighlightSentence highlights the sentence with the given index.
func (s *HighlightService) HighlightSentence(
	ctx context.Context,
	userID string,
	kind domain.ContentKind,
	contentItemID string,
	index int,
	meta domain.HighlightMetadata,
	token string,
) (*domain.Highlight, error) {
	item, err := s.getContent(ctx, userID, kind, contentItemID, token)
	if err != nil {
		return nil, err
	}
	rng, ok := SentenceAt(item.Body, index)
	if !ok {
		return nil, &domain.ValidationError{Field: "index", Message: fmt.Sprintf("no sentence %d", index)}
	}
	return s.CreateHighlight(userID, item.ID, rng, SliceUTF16(item.Body, rng.Start, rng.End), meta, token)
}

// HighlightSelection highlights a free-form browser selection. It returns
// (nil, nil) when the selection does not resolve to any text.
func (s *HighlightService) HighlightSelection(
	ctx context.Context,
	userID string,
	kind domain.ContentKind,
	contentItemID string,
	nodes []string,
	sel domain.Selection,
	meta domain.HighlightMetadata,
	token string,
) (*domain.Highlight, error) {
	item, err := s.getContent(ctx, userID, kind, contentItemID, token)
	if err != nil {
		return nil, err
	}
	resolved, ok := ResolveSelection(item.Body, nodes, sel)
	if !ok {
		s.logger.Debug("Ignoring empty selection", "user_id", userID, "content_item_id", contentItemID)
		return nil, nil
	}
	rng := domain.TextRange{Start: resolved.Start, End: resolved.Start + resolved.Length}
	return s.CreateHighlight(userID, item.ID, rng, resolved.Text, meta, token)
}

// RenderContent returns a content item partitioned by the caller's highlights.
// Highlights are refreshed from the backend on every render so rows created
// elsewhere show up. When the refresh fails an item that was loaded before is
// rendered from the store.
func (s *HighlightService) RenderContent(
	ctx context.Context,
	userID string,
	kind domain.ContentKind,
	contentItemID string,
	mode domain.DisplayMode,
	token string,
) (*domain.RenderedContent, error) {
	item, err := s.getContent(ctx, userID, kind, contentItemID, token)
	if err != nil {
		return nil, err
	}

	store := s.stores.For(userID)
	if _, err := s.LoadHighlights(userID, []string{item.ID}, token); err != nil {
		if !store.Loaded(item.ID) {
			return nil, err
		}
		s.logger.Warn("Rendering cached highlights", "user_id", userID, "content_item_id", item.ID, "error", err)
	}

	segments := Render(item.Body, store.Get(item.ID), userID)
	if mode == "" {
		mode = domain.DisplayFull
	}
	return &domain.RenderedContent{
		Content:  item,
		Mode:     mode,
		Segments: FilterSegments(segments, mode),
	}, nil
}

// ListSentences returns the sentence-mode ranges of a content item.
func (s *HighlightService) ListSentences(ctx context.Context, userID string, kind domain.ContentKind, contentItemID string, token string) ([]domain.Sentence, error) {
	item, err := s.getContent(ctx, userID, kind, contentItemID, token)
	if err != nil {
		return nil, err
	}
	return Sentences(item.Body), nil
}

func (s *HighlightService) getContent(ctx context.Context, userID string, kind domain.ContentKind, id string, token string) (*domain.ContentItem, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "content_item_id", Message: "is required"}
	}

	if s.contentCache != nil {
		item, ok, err := s.contentCache.Get(ctx, userID, kind, id)
		if err != nil {
			s.logger.Warn("Content cache read failed", "kind", kind, "content_item_id", id, "error", err)
		} else if ok {
			return item, nil
		}
	}

	item, err := s.contentRepo.GetByID(kind, id, token)
	if err != nil {
		return nil, err
	}

	if s.contentCache != nil {
		if err := s.contentCache.Set(ctx, userID, item); err != nil {
			s.logger.Warn("Content cache write failed", "kind", kind, "content_item_id", id, "error", err)
		}
	}
	return item, nil
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
