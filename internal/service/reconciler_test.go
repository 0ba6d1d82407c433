package service

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"study-highlights/internal/domain"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newHighlight(id string, start, length int, createdOffset time.Duration) *domain.Highlight {
	return &domain.Highlight{
		ID:            id,
		ContentItemID: "item-1",
		OwnerID:       "user-1",
		RangeStart:    start,
		RangeLength:   length,
		Color:         domain.ColorYellow,
		Visibility:    domain.VisibilityPrivate,
		CreatedAt:     baseTime.Add(createdOffset),
	}
}

// assertPartition checks that segments cover text end to end without gaps or overlap.
func assertPartition(t *testing.T, text string, segments []domain.Segment) {
	t.Helper()

	var b strings.Builder
	cursor := 0
	for i, s := range segments {
		if s.Start != cursor {
			t.Fatalf("segment %d starts at %d, expected %d", i, s.Start, cursor)
		}
		if s.End <= s.Start {
			t.Fatalf("segment %d is empty: [%d,%d)", i, s.Start, s.End)
		}
		b.WriteString(s.Text)
		cursor = s.End
	}
	if cursor != UTF16Len(text) {
		t.Fatalf("segments end at %d, text has %d code units", cursor, UTF16Len(text))
	}
	if b.String() != text {
		t.Fatalf("segments reconstruct %q, expected %q", b.String(), text)
	}
}

func TestRender_NoHighlights(t *testing.T) {
	segments := Render("plain text", nil, "user-1")
	if len(segments) != 1 || segments[0].Kind != domain.SegmentPlain {
		t.Fatalf("expected one plain segment, got %+v", segments)
	}
	assertPartition(t, "plain text", segments)

	if got := Render("", []*domain.Highlight{newHighlight("a", 0, 1, 0)}, "user-1"); len(got) != 0 {
		t.Errorf("expected no segments for empty text, got %+v", got)
	}
}

func TestRender_FirstWinsOnOverlap(t *testing.T) {
	text := "abcdefghijklmnopqrst"
	a := newHighlight("A", 0, 10, 0)
	b := newHighlight("B", 5, 10, time.Second)

	segments := Render(text, []*domain.Highlight{b, a}, "user-1")
	assertPartition(t, text, segments)

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %+v", segments)
	}
	first, second := segments[0], segments[1]
	if first.Start != 0 || first.End != 10 || first.Highlight == nil || first.Highlight.HighlightID != "A" {
		t.Errorf("expected [0,10) attributed to A, got %+v", first)
	}
	if second.Start != 10 || second.End != 15 || second.Highlight == nil || second.Highlight.HighlightID != "B" {
		t.Errorf("expected [10,15) attributed to B, got %+v", second)
	}
	if segments[2].Kind != domain.SegmentPlain || segments[2].Text != "pqrst" {
		t.Errorf("expected trailing plain segment, got %+v", segments[2])
	}
}

func TestRender_SameStartOlderWins(t *testing.T) {
	text := "abcdefghij"
	older := newHighlight("older", 0, 8, 0)
	newer := newHighlight("newer", 0, 5, time.Minute)

	segments := Render(text, []*domain.Highlight{newer, older}, "user-1")
	assertPartition(t, text, segments)

	for _, s := range segments {
		if s.Highlight != nil && s.Highlight.HighlightID == "newer" {
			t.Fatalf("expected covered highlight to be hidden, got %+v", s)
		}
	}
	if segments[0].Highlight == nil || segments[0].Highlight.HighlightID != "older" || segments[0].End != 8 {
		t.Errorf("expected older highlight to claim [0,8), got %+v", segments[0])
	}
}

func TestRender_StaleHighlightDropped(t *testing.T) {
	tests := []struct {
		name      string
		highlight *domain.Highlight
	}{
		{name: "past end", highlight: newHighlight("stale", 5, 10, 0)},
		{name: "starts after text", highlight: newHighlight("stale", 20, 3, 0)},
		{name: "negative start", highlight: newHighlight("stale", -2, 5, 0)},
		{name: "zero length", highlight: newHighlight("stale", 1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "abcdefgh"
			segments := Render(text, []*domain.Highlight{tt.highlight}, "user-1")
			if len(segments) != 1 || segments[0].Kind != domain.SegmentPlain {
				t.Fatalf("expected a single plain segment, got %+v", segments)
			}
			assertPartition(t, text, segments)
		})
	}
}

func TestRender_DoesNotSplitSurrogatePairs(t *testing.T) {
	text := "a😀b😀c"
	// starts on the low half of the first emoji
	h := newHighlight("mid", 2, 3, 0)

	segments := Render(text, []*domain.Highlight{h}, "user-1")
	assertPartition(t, text, segments)
	for _, s := range segments {
		if strings.ContainsRune(s.Text, '�') {
			t.Fatalf("segment text contains a broken surrogate: %+v", s)
		}
	}
}

func TestRender_CanDeleteOnlyForOwner(t *testing.T) {
	text := "abcdefghij"
	mine := newHighlight("mine", 0, 3, 0)
	theirs := newHighlight("theirs", 5, 3, 0)
	theirs.OwnerID = "user-2"

	segments := Render(text, []*domain.Highlight{mine, theirs}, "user-1")
	assertPartition(t, text, segments)

	for _, s := range segments {
		if s.Highlight == nil {
			continue
		}
		want := s.Highlight.HighlightID == "mine"
		if s.Highlight.CanDelete != want {
			t.Errorf("highlight %s: expected CanDelete=%v", s.Highlight.HighlightID, want)
		}
	}

	for _, s := range Render(text, []*domain.Highlight{mine}, "") {
		if s.Highlight != nil && s.Highlight.CanDelete {
			t.Errorf("expected anonymous viewer not to be offered delete")
		}
	}
}

func TestFilterSegments(t *testing.T) {
	text := "abcdefghij"
	segments := Render(text, []*domain.Highlight{newHighlight("a", 2, 3, 0)}, "user-1")

	if got := FilterSegments(segments, domain.DisplayFull); len(got) != len(segments) {
		t.Errorf("expected full mode to keep %d segments, got %d", len(segments), len(got))
	}

	got := FilterSegments(segments, domain.DisplayHighlightsOnly)
	if len(got) != 1 || got[0].Text != "cde" {
		t.Fatalf("expected only the highlighted segment, got %+v", got)
	}
}

func TestRender_RandomizedPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(20240301))
	alphabet := []string{"a", "b", " ", ".", "é", "😀", "\n"}

	for i := 0; i < 2000; i++ {
		var b strings.Builder
		for j := rng.Intn(40); j > 0; j-- {
			b.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		text := b.String()
		n := UTF16Len(text)

		highlights := make([]*domain.Highlight, 0)
		for j := rng.Intn(6); j > 0; j-- {
			start := rng.Intn(n+10) - 5
			length := rng.Intn(n+8) - 2
			h := newHighlight(fmt.Sprintf("h%d", j), start, length, time.Duration(rng.Intn(5))*time.Second)
			highlights = append(highlights, h)
		}

		segments := Render(text, highlights, "user-1")
		if n == 0 {
			if len(segments) != 0 {
				t.Fatalf("case %d: expected no segments for empty text, got %+v", i, segments)
			}
			continue
		}
		assertPartition(t, text, segments)

		byID := make(map[string]*domain.Highlight, len(highlights))
		for _, h := range highlights {
			byID[h.ID] = h
		}
		seen := make(map[string]bool)
		for _, seg := range segments {
			if strings.ContainsRune(seg.Text, '\uFFFD') {
				t.Fatalf("case %d: segment splits a surrogate pair: %q in %q", i, seg.Text, text)
			}
			if seg.Highlight == nil {
				continue
			}
			h := byID[seg.Highlight.HighlightID]
			if seen[h.ID] {
				t.Fatalf("case %d: highlight %s rendered twice", i, h.ID)
			}
			seen[h.ID] = true
			if h.RangeStart < 0 || h.RangeEnd() > n || h.RangeLength <= 0 {
				t.Fatalf("case %d: stale highlight %+v was rendered", i, h)
			}
			if seg.Start < h.RangeStart || seg.End > h.RangeEnd()+1 {
				t.Fatalf("case %d: segment [%d,%d) escapes highlight [%d,%d)", i, seg.Start, seg.End, h.RangeStart, h.RangeEnd())
			}
		}
	}
}
