package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"study-highlights/internal/domain"

	"github.com/gorilla/mux"
)

// HighlightHandler handles highlight-related HTTP requests.
type HighlightHandler struct {
	highlightService domain.HighlightService
	logger           domain.Logger
}

func NewHighlightHandler(highlightService domain.HighlightService, logger domain.Logger) *HighlightHandler {
	return &HighlightHandler{
		highlightService: highlightService,
		logger:           logger,
	}
}

type createHighlightRequest struct {
	ContentItemID string  `json:"content_item_id"`
	RangeStart    int     `json:"range_start"`
	RangeLength   int     `json:"range_length"`
	SelectedText  string  `json:"selected_text"`
	Color         string  `json:"color"`
	Visibility    string  `json:"visibility"`
	Note          *string `json:"note,omitempty"`
}

type highlightsResponse struct {
	Highlights map[string][]*domain.Highlight `json:"highlights"`
}

// ListHighlights handles GET /highlights?content_item_id=...
// The parameter may be repeated or comma separated.
func (h *HighlightHandler) ListHighlights(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	ids := make([]string, 0)
	for _, raw := range r.URL.Query()["content_item_id"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "content_item_id is required")
		return
	}

	highlights, err := h.highlightService.LoadHighlights(user.ID, ids, token)
	if err != nil {
		writeServiceError(w, h.logger, "load highlights", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, highlightsResponse{Highlights: highlights})
}

// CreateHighlight handles POST /highlights
func (h *HighlightHandler) CreateHighlight(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req createHighlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ContentItemID == "" {
		writeError(w, http.StatusBadRequest, "content_item_id is required")
		return
	}
	if req.RangeLength <= 0 {
		writeError(w, http.StatusBadRequest, "range_length must be positive")
		return
	}

	meta, ok := decodeMetadata(w, req.Color, req.Visibility, req.Note)
	if !ok {
		return
	}

	rng := domain.TextRange{Start: req.RangeStart, End: req.RangeStart + req.RangeLength}
	created, err := h.highlightService.CreateHighlight(user.ID, req.ContentItemID, rng, req.SelectedText, meta, token)
	if err != nil {
		writeServiceError(w, h.logger, "create highlight", err, "user_id", user.ID, "content_item_id", req.ContentItemID)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteHighlight handles DELETE /highlights/{id}
func (h *HighlightHandler) DeleteHighlight(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	highlightID := mux.Vars(r)["id"]
	if highlightID == "" {
		writeError(w, http.StatusBadRequest, "Highlight ID is required")
		return
	}

	if err := h.highlightService.DeleteHighlight(user.ID, highlightID, token); err != nil {
		writeServiceError(w, h.logger, "delete highlight", err, "user_id", user.ID, "highlight_id", highlightID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeMetadata(w http.ResponseWriter, color, visibility string, note *string) (domain.HighlightMetadata, bool) {
	c, err := domain.ParseColor(color)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.HighlightMetadata{}, false
	}
	v, err := domain.ParseVisibility(visibility)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.HighlightMetadata{}, false
	}
	return domain.HighlightMetadata{Color: c, Visibility: v, Note: note}, true
}
