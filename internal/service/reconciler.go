package service

import (
	"sort"

	"study-highlights/internal/domain"
)

type renderCandidate struct {
	highlight *domain.Highlight
	start     int
	end       int
}

// Render partitions text into plain and highlighted segments.
//
// Highlights are ordered by start offset, then by creation time, then by their
// position in the input. The first highlight in that order claims every code
// unit it covers; a later overlapping highlight only keeps the part past the
// previous end. Concatenating the Text of the returned segments reproduces
// text exactly.
//
// A highlight whose stored range no longer fits the text is stale and is not
// rendered: the range is clipped to the text bounds and dropped when clipping
// changed its length.
func Render(text string, highlights []*domain.Highlight, viewerID string) []domain.Segment {
	units := encodeUTF16(text)
	n := len(units)

	candidates := make([]renderCandidate, 0, len(highlights))
	for _, h := range highlights {
		if h == nil || h.RangeLength <= 0 {
			continue
		}
		start := clampInt(h.RangeStart, 0, n)
		end := clampInt(h.RangeEnd(), 0, n)
		if end-start <= 0 || end-start != h.RangeLength {
			continue
		}
		candidates = append(candidates, renderCandidate{highlight: h, start: start, end: end})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.start != b.start {
			return a.start < b.start
		}
		return a.highlight.CreatedAt.Before(b.highlight.CreatedAt)
	})

	segments := make([]domain.Segment, 0, 2*len(candidates)+1)
	cursor := 0
	for _, c := range candidates {
		start := snapBoundary(units, maxInt(c.start, cursor))
		end := snapBoundary(units, c.end)
		if start >= end {
			continue
		}
		if start > cursor {
			segments = append(segments, plainSegment(units, cursor, start))
		}
		h := c.highlight
		segments = append(segments, domain.Segment{
			Start: start,
			End:   end,
			Text:  sliceUnits(units, start, end),
			Kind:  domain.SegmentHighlighted,
			Highlight: &domain.SegmentHighlight{
				HighlightID: h.ID,
				Color:       h.Color,
				Visibility:  h.Visibility,
				Note:        h.Note,
				CanDelete:   viewerID != "" && h.OwnerID == viewerID,
			},
		})
		cursor = end
	}
	if cursor < n {
		segments = append(segments, plainSegment(units, cursor, n))
	}
	return segments
}

// FilterSegments applies a display mode to a rendered partition.
func FilterSegments(segments []domain.Segment, mode domain.DisplayMode) []domain.Segment {
	if mode != domain.DisplayHighlightsOnly {
		return segments
	}
	out := make([]domain.Segment, 0, len(segments))
	for _, s := range segments {
		if s.Kind == domain.SegmentHighlighted {
			out = append(out, s)
		}
	}
	return out
}

func plainSegment(units []uint16, start, end int) domain.Segment {
	return domain.Segment{
		Start: start,
		End:   end,
		Text:  sliceUnits(units, start, end),
		Kind:  domain.SegmentPlain,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
