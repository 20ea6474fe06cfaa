package segment

import (
	"fmt"
	"unicode/utf8"
)

// Batch is one provider request worth of segments.
type Batch struct {
	ID       string
	Index    int
	Segments []Segment
}

// Texts returns the batch's segment texts in order.
func (b Batch) Texts() []string {
	out := make([]string, len(b.Segments))
	for i, s := range b.Segments {
		out[i] = s.Text
	}
	return out
}

// CharLength is the rune count of the batch's segment texts.
func (b Batch) CharLength() int {
	n := 0
	for _, s := range b.Segments {
		n += utf8.RuneCountInString(s.Text)
	}
	return n
}

// Partition splits segments at every boundary marker. Markers are dropped and
// batches come back in creation order, batch_0 first. Without markers the
// whole input is a single batch. A marker at the very end leaves an empty
// final batch.
func Partition(segments []Segment) []Batch {
	var (
		batches []Batch
		start   int
	)
	flush := func(end int) {
		idx := len(batches)
		batches = append(batches, Batch{
			ID:       fmt.Sprintf("batch_%d", idx),
			Index:    idx,
			Segments: segments[start:end:end],
		})
	}
	for i, s := range segments {
		if !s.Boundary {
			continue
		}
		flush(i)
		start = i + 1
	}
	flush(len(segments))
	return batches
}
