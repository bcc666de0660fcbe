package rewrite

import (
	"fmt"
	"sort"
	"strings"
)

// Apply applies changes to text. The changes may be in any order; they are
// sorted by start offset, keeping the given order for equal offsets, and
// must not overlap. Insertions at the same offset are all kept.
func Apply(text string, changes []TextChange) (string, error) {
	if len(changes) == 0 {
		return text, nil
	}

	sorted := append([]TextChange(nil), changes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var sb strings.Builder
	sb.Grow(len(text))
	pos := 0
	for i, c := range sorted {
		if c.Start < 0 || c.End < c.Start || c.End > len(text) {
			return "", fmt.Errorf("%w: [%d, %d) in text of length %d", ErrChangeOutOfRange, c.Start, c.End, len(text))
		}
		if c.Start < pos {
			prev := sorted[i-1]
			return "", fmt.Errorf("%w: [%d, %d) and [%d, %d)", ErrOverlappingChanges, prev.Start, prev.End, c.Start, c.End)
		}
		sb.WriteString(text[pos:c.Start])
		sb.WriteString(c.NewText)
		pos = c.End
	}
	sb.WriteString(text[pos:])
	return sb.String(), nil
}
