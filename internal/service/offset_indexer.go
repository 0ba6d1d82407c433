package service

import (
	"strings"
	"unicode"
	"unicode/utf16"

	"study-highlights/internal/domain"
)

// Offsets handed to and received from the web client are UTF-16 code units,
// the unit JavaScript strings are indexed by. All helpers below work on the
// encoded form of the canonical body so sentence and selection offsets agree.

func encodeUTF16(text string) []uint16 {
	return utf16.Encode([]rune(text))
}

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// SliceUTF16 returns the substring of text covering the code units [start, end).
// Out-of-range bounds are clamped.
func SliceUTF16(text string, start, end int) string {
	return sliceUnits(encodeUTF16(text), start, end)
}

func sliceUnits(units []uint16, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(units) {
		end = len(units)
	}
	if start >= end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}

// snapBoundary moves pos forward when it would split a surrogate pair.
func snapBoundary(units []uint16, pos int) int {
	if pos > 0 && pos < len(units) && utf16.IsSurrogate(rune(units[pos])) && isHighSurrogate(units[pos-1]) {
		return pos + 1
	}
	return pos
}

func isHighSurrogate(u uint16) bool {
	return u >= 0xD800 && u < 0xDC00
}

func isSentenceTerminator(u uint16) bool {
	return u == '.' || u == '!' || u == '?'
}

// SentenceRanges splits text into sentences with one linear pass.
//
// A sentence ends after a run of '.', '!' or '?', so "Wait?!" stays one
// sentence. Whitespace after the terminator starts the next sentence. A
// trailing fragment without a terminator is emitted as the last range. The
// ranges cover the whole text with no gaps; an index is only stable for the
// text it was computed from.
func SentenceRanges(text string) []domain.TextRange {
	return sentenceRanges(encodeUTF16(text))
}

func sentenceRanges(units []uint16) []domain.TextRange {
	ranges := make([]domain.TextRange, 0)
	start := 0
	for i := 0; i < len(units); i++ {
		if !isSentenceTerminator(units[i]) {
			continue
		}
		end := i + 1
		for end < len(units) && isSentenceTerminator(units[end]) {
			end++
		}
		ranges = append(ranges, domain.TextRange{Start: start, End: end})
		start = end
		i = end - 1
	}
	if start < len(units) {
		ranges = append(ranges, domain.TextRange{Start: start, End: len(units)})
	}
	return ranges
}

// SentenceAt returns the range of the sentence with the given index.
func SentenceAt(text string, index int) (domain.TextRange, bool) {
	ranges := SentenceRanges(text)
	if index < 0 || index >= len(ranges) {
		return domain.TextRange{}, false
	}
	return ranges[index], true
}

// Sentences returns every sentence of text together with its index and text.
func Sentences(text string) []domain.Sentence {
	units := encodeUTF16(text)
	ranges := sentenceRanges(units)
	out := make([]domain.Sentence, 0, len(ranges))
	for i, r := range ranges {
		out = append(out, domain.Sentence{
			Index: i,
			Start: r.Start,
			End:   r.End,
			Text:  sliceUnits(units, r.Start, r.End),
		})
	}
	return out
}

// ResolveSelection turns a browser selection into a range of the canonical
// text. nodes are the text nodes of the tracked container in document order.
//
// The rendered nodes may differ from canonical in whitespace only (the
// browser collapses runs); offsets are mapped back onto canonical. Whitespace
// at either edge of the selection is trimmed. It reports false when the
// selection is empty, collapsed, falls outside the container or the rendered
// text no longer matches canonical.
func ResolveSelection(canonical string, nodes []string, sel domain.Selection) (domain.SelectionRange, bool) {
	if len(nodes) == 0 {
		return domain.SelectionRange{}, false
	}

	a, ok := absoluteOffset(nodes, sel.Start)
	if !ok {
		return domain.SelectionRange{}, false
	}
	b, ok := absoluteOffset(nodes, sel.End)
	if !ok {
		return domain.SelectionRange{}, false
	}
	if a > b {
		a, b = b, a
	}
	if a == b {
		return domain.SelectionRange{}, false
	}

	c := encodeUTF16(canonical)
	r := encodeUTF16(strings.Join(nodes, ""))
	mapping := alignNonSpace(c, r)
	if mapping == nil {
		return domain.SelectionRange{}, false
	}

	start, end := -1, -1
	for j := a; j < b; j++ {
		if mapping[j] < 0 {
			continue
		}
		if start < 0 {
			start = mapping[j]
		}
		end = mapping[j] + 1
	}
	if start < 0 {
		return domain.SelectionRange{}, false
	}
	if start > 0 && start < len(c) && !isHighSurrogate(c[start]) && utf16.IsSurrogate(rune(c[start])) {
		start--
	}
	end = snapBoundary(c, end)

	return domain.SelectionRange{
		Start:  start,
		Length: end - start,
		Text:   sliceUnits(c, start, end),
	}, true
}

func absoluteOffset(nodes []string, p domain.SelectionPoint) (int, bool) {
	if p.Node < 0 || p.Node >= len(nodes) || p.Offset < 0 {
		return 0, false
	}
	if p.Offset > UTF16Len(nodes[p.Node]) {
		return 0, false
	}
	offset := p.Offset
	for i := 0; i < p.Node; i++ {
		offset += UTF16Len(nodes[i])
	}
	return offset, true
}

// alignNonSpace maps every non-whitespace unit of rendered to its position in
// canonical. Whitespace units map to -1. It returns nil when the two texts
// differ in anything other than whitespace.
func alignNonSpace(canonical, rendered []uint16) []int {
	mapping := make([]int, len(rendered))
	i := 0
	for j, u := range rendered {
		if unicode.IsSpace(rune(u)) {
			mapping[j] = -1
			continue
		}
		for i < len(canonical) && unicode.IsSpace(rune(canonical[i])) {
			i++
		}
		if i >= len(canonical) || canonical[i] != u {
			return nil
		}
		mapping[j] = i
		i++
	}
	return mapping
}
