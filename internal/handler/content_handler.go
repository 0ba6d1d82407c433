package handler

import (
	"encoding/json"
	"net/http"

	"study-highlights/internal/domain"

	"github.com/gorilla/mux"
)

// ContentHandler serves content items rendered with the caller's highlights
// and the sentence and selection gestures that create highlights on them.
type ContentHandler struct {
	highlightService domain.HighlightService
	logger           domain.Logger
}

func NewContentHandler(highlightService domain.HighlightService, logger domain.Logger) *ContentHandler {
	return &ContentHandler{
		highlightService: highlightService,
		logger:           logger,
	}
}

type sentenceHighlightRequest struct {
	Index      *int    `json:"index"`
	Color      string  `json:"color"`
	Visibility string  `json:"visibility"`
	Note       *string `json:"note,omitempty"`
}

type selectionHighlightRequest struct {
	Nodes      []string              `json:"nodes"`
	Start      domain.SelectionPoint `json:"start"`
	End        domain.SelectionPoint `json:"end"`
	Color      string                `json:"color"`
	Visibility string                `json:"visibility"`
	Note       *string               `json:"note,omitempty"`
}

type sentencesResponse struct {
	Sentences []domain.Sentence `json:"sentences"`
}

func (h *ContentHandler) contentRef(w http.ResponseWriter, r *http.Request) (domain.ContentKind, string, bool) {
	vars := mux.Vars(r)
	kind, err := domain.ParseContentKind(vars["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	id := vars["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, "Content ID is required")
		return "", "", false
	}
	return kind, id, true
}

// GetContent handles GET /content/{kind}/{id}?mode=full|highlights
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	kind, id, ok := h.contentRef(w, r)
	if !ok {
		return
	}
	mode, err := domain.ParseDisplayMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rendered, err := h.highlightService.RenderContent(r.Context(), user.ID, kind, id, mode, token)
	if err != nil {
		writeServiceError(w, h.logger, "render content", err, "user_id", user.ID, "content_item_id", id)
		return
	}
	writeJSON(w, http.StatusOK, rendered)
}

// ListSentences handles GET /content/{kind}/{id}/sentences
func (h *ContentHandler) ListSentences(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	kind, id, ok := h.contentRef(w, r)
	if !ok {
		return
	}

	sentences, err := h.highlightService.ListSentences(r.Context(), user.ID, kind, id, token)
	if err != nil {
		writeServiceError(w, h.logger, "list sentences", err, "user_id", user.ID, "content_item_id", id)
		return
	}
	writeJSON(w, http.StatusOK, sentencesResponse{Sentences: sentences})
}

// HighlightSentence handles POST /content/{kind}/{id}/highlights/sentence
func (h *ContentHandler) HighlightSentence(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	kind, id, ok := h.contentRef(w, r)
	if !ok {
		return
	}

	var req sentenceHighlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	meta, ok := decodeMetadata(w, req.Color, req.Visibility, req.Note)
	if !ok {
		return
	}

	created, err := h.highlightService.HighlightSentence(r.Context(), user.ID, kind, id, *req.Index, meta, token)
	if err != nil {
		writeServiceError(w, h.logger, "highlight sentence", err, "user_id", user.ID, "content_item_id", id)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HighlightSelection handles POST /content/{kind}/{id}/highlights/selection.
// A selection that resolves to no text is answered with 204.
func (h *ContentHandler) HighlightSelection(w http.ResponseWriter, r *http.Request) {
	user, token, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	kind, id, ok := h.contentRef(w, r)
	if !ok {
		return
	}

	var req selectionHighlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	meta, ok := decodeMetadata(w, req.Color, req.Visibility, req.Note)
	if !ok {
		return
	}

	sel := domain.Selection{Start: req.Start, End: req.End}
	created, err := h.highlightService.HighlightSelection(r.Context(), user.ID, kind, id, req.Nodes, sel, meta, token)
	if err != nil {
		writeServiceError(w, h.logger, "highlight selection", err, "user_id", user.ID, "content_item_id", id)
		return
	}
	if created == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
