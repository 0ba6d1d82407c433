package domain

import (
	"context"
	"strings"
	"time"
)

// Color is the marker color a user picked for a highlight.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPink   Color = "pink"
	ColorPurple Color = "purple"
)

// ParseColor returns the color for s. An empty string yields the default color.
func ParseColor(s string) (Color, error) {
	switch c := Color(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ColorYellow, nil
	case ColorYellow, ColorGreen, ColorBlue, ColorPink, ColorPurple:
		return c, nil
	}
	return "", &ValidationError{Field: "color", Message: "unknown color " + s}
}

// Visibility controls who in a study group can see a highlight.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityGroup   Visibility = "group"
	VisibilityLeaders Visibility = "leaders"
)

// ParseVisibility returns the visibility for s. An empty string yields private.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VisibilityPrivate, nil
	case VisibilityPrivate, VisibilityGroup, VisibilityLeaders:
		return v, nil
	}
	return "", &ValidationError{Field: "visibility", Message: "unknown visibility " + s}
}

// Highlight is a user-authored annotation over a contiguous range of a
// content item's body. Offsets are UTF-16 code units.
type Highlight struct {
	ID            string     `json:"id"`
	ContentItemID string     `json:"content_item_id"`
	OwnerID       string     `json:"owner_id"`
	RangeStart    int        `json:"range_start"`
	RangeLength   int        `json:"range_length"`
	SelectedText  string     `json:"selected_text"`
	Color         Color      `json:"color"`
	Visibility    Visibility `json:"visibility"`
	Note          *string    `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RangeEnd returns the exclusive end offset of the highlight.
func (h *Highlight) RangeEnd() int {
	return h.RangeStart + h.RangeLength
}

// HighlightMetadata is the user-chosen presentation of a new highlight.
type HighlightMetadata struct {
	Color      Color      `json:"color"`
	Visibility Visibility `json:"visibility"`
	Note       *string    `json:"note,omitempty"`
}

// TextRange is a half-open [Start, End) range of UTF-16 code units.
type TextRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of code units covered by the range.
func (r TextRange) Len() int {
	return r.End - r.Start
}

// SelectionPoint is one end of a browser selection: a text node of the
// tracked container and a UTF-16 offset inside that node.
type SelectionPoint struct {
	Node   int `json:"node"`
	Offset int `json:"offset"`
}

// Selection is a browser-reported selection inside a tracked container.
type Selection struct {
	Start SelectionPoint `json:"start"`
	End   SelectionPoint `json:"end"`
}

// SelectionRange is a selection resolved against the canonical text.
type SelectionRange struct {
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Text   string `json:"text"`
}

// SegmentKind tags a rendered segment.
type SegmentKind string

const (
	SegmentPlain       SegmentKind = "plain"
	SegmentHighlighted SegmentKind = "highlighted"
)

// SegmentHighlight describes the highlight that claimed a segment.
//
// CanDelete only decides whether a delete affordance is shown. The backend
// re-checks ownership on every delete; this flag is never an authorization check.
type SegmentHighlight struct {
	HighlightID string     `json:"highlight_id"`
	Color       Color      `json:"color"`
	Visibility  Visibility `json:"visibility"`
	Note        *string    `json:"note,omitempty"`
	CanDelete   bool       `json:"can_delete"`
}

// Segment is one piece of a rendered content body.
type Segment struct {
	Start     int               `json:"start"`
	End       int               `json:"end"`
	Text      string            `json:"text"`
	Kind      SegmentKind       `json:"kind"`
	Highlight *SegmentHighlight `json:"highlight,omitempty"`
}

// DisplayMode selects which segments a render returns.
type DisplayMode string

const (
	// DisplayFull returns the whole partition of the body.
	DisplayFull DisplayMode = "full"
	// DisplayHighlightsOnly returns only highlighted segments.
	DisplayHighlightsOnly DisplayMode = "highlights"
)

// ParseDisplayMode returns the mode for s, defaulting to DisplayFull.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch m := DisplayMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DisplayFull, nil
	case DisplayFull, DisplayHighlightsOnly:
		return m, nil
	}
	return "", &ValidationError{Field: "mode", Message: "unknown display mode " + s}
}

// RenderedContent is a content item together with its reconciled segments.
type RenderedContent struct {
	Content  *ContentItem `json:"content"`
	Mode     DisplayMode  `json:"mode"`
	Segments []Segment    `json:"segments"`
}

// Sentence is one sentence-mode range of a content body.
type Sentence struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// HighlightRepository is the remote backend for highlights.
type HighlightRepository interface {
	FetchByContentItems(contentItemIDs []string, token string) ([]*Highlight, error)
	Create(highlight *Highlight, token string) (*Highlight, error)
	Delete(highlightID string, token string) error
}

// HighlightService defines the use-case operations for highlights.
type HighlightService interface {
	LoadHighlights(userID string, contentItemIDs []string, token string) (map[string][]*Highlight, error)
	CreateHighlight(userID string, contentItemID string, rng TextRange, text string, meta HighlightMetadata, token string) (*Highlight, error)
	DeleteHighlight(userID string, highlightID string, token string) error
	HighlightSentence(ctx context.Context, userID string, kind ContentKind, contentItemID string, index int, meta HighlightMetadata, token string) (*Highlight, error)
	HighlightSelection(ctx context.Context, userID string, kind ContentKind, contentItemID string, nodes []string, sel Selection, meta HighlightMetadata, token string) (*Highlight, error)
	RenderContent(ctx context.Context, userID string, kind ContentKind, contentItemID string, mode DisplayMode, token string) (*RenderedContent, error)
	ListSentences(ctx context.Context, userID string, kind ContentKind, contentItemID string, token string) ([]Sentence, error)
}
