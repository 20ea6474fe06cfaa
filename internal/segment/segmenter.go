// Package segment splits plain text into sentence fragments sized for a
// translation provider, groups them into request batches and rebuilds the
// translated text afterwards.
package segment

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultCharLimit is the provider's per-request character budget.
	DefaultCharLimit = 4000
	// DefaultDelimiter is the text carried by batch boundary markers.
	DefaultDelimiter = "||"

	sentenceDelimiter = "."
)

// Segment is one sentence fragment, an empty placeholder standing for an
// original line break, or a batch boundary marker.
type Segment struct {
	Text     string `json:"text"`
	Boundary bool   `json:"boundary,omitempty"`
}

// IsPlaceholder reports whether the segment marks a line break.
func (s Segment) IsPlaceholder() bool {
	return !s.Boundary && s.Text == ""
}

// Options controls the batch budget.
type Options struct {
	CharLimit int
	Delimiter string
}

func (o Options) withDefaults() Options {
	if o.CharLimit <= 0 {
		o.CharLimit = DefaultCharLimit
	}
	if o.Delimiter == "" {
		o.Delimiter = DefaultDelimiter
	}
	return o
}

// Result is the output of segmentation. Segments keeps boundary markers
// interleaved in document order.
type Result struct {
	TotalCharLength int       `json:"totalCharLength"`
	Segments        []Segment `json:"segments"`
}

// Boundaries returns the number of boundary markers in the result.
func (r Result) Boundaries() int {
	n := 0
	for _, s := range r.Segments {
		if s.Boundary {
			n++
		}
	}
	return n
}

// Texts returns the non-boundary segment texts in order.
func (r Result) Texts() []string {
	out := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if !s.Boundary {
			out = append(out, s.Text)
		}
	}
	return out
}

// Segmenter accumulates lines and emits segments with boundary markers once
// the running character total passes each multiple of the limit. A segment
// that crosses the threshold stays in the current batch and the marker
// follows it.
type Segmenter struct {
	opts     Options
	total    int
	counter  int
	segments []Segment
}

func NewSegmenter(opts Options) *Segmenter {
	return &Segmenter{
		opts:    opts.withDefaults(),
		counter: 1,
	}
}

// AddLine segments a single line. The line must not contain line breaks.
func (s *Segmenter) AddLine(line string) {
	if line == "" {
		s.segments = append(s.segments, Segment{})
		return
	}

	for _, part := range strings.Split(line, sentenceDelimiter) {
		text := ""
		if strings.TrimSpace(part) != "" {
			text = part + sentenceDelimiter
		}
		s.segments = append(s.segments, Segment{Text: text})

		s.total += utf8.RuneCountInString(text)
		if s.total >= s.opts.CharLimit*s.counter {
			s.segments = append(s.segments, Segment{Text: s.opts.Delimiter, Boundary: true})
			s.counter++
		}
	}
}

// Result returns what has been segmented so far.
func (s *Segmenter) Result() Result {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return Result{TotalCharLength: s.total, Segments: out}
}

// Split segments an in-memory document. Lines are separated by CR, LF or
// CRLF; empty lines, including a trailing one after a final line break, are
// kept as placeholders.
func Split(text string, opts Options) Result {
	s := NewSegmenter(opts)
	for {
		i, width := lineEnd(text)
		if i < 0 {
			s.AddLine(text)
			break
		}
		s.AddLine(text[:i])
		text = text[i+width:]
	}
	return s.Result()
}

// lineEnd finds the first line terminator in data and returns its index and
// byte width, or -1 when there is none.
func lineEnd[T string | []byte](data T) (int, int) {
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\n':
			return i, 1
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				return i, 2
			}
			return i, 1
		}
	}
	return -1, 0
}
