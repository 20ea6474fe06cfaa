package segment

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// MaxLineBytes bounds a single line read from a stream.
const MaxLineBytes = 16 * 1024 * 1024

// lineSplitter is a bufio.SplitFunc that breaks on CR, LF and CRLF and
// remembers whether the last token was terminated, so a trailing line break
// yields the same empty placeholder Split produces.
type lineSplitter struct {
	terminated bool
}

func (l *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i, width := lineEnd(data)
	if i >= 0 {
		// a CR at the end of the buffer may be the first half of CRLF
		if width == 1 && data[i] == '\r' && i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		l.terminated = true
		return i + width, data[:i], nil
	}
	if atEOF {
		l.terminated = false
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Read segments a stream line by line. The result is final only once the
// reader is exhausted and matches what Split returns for the same bytes.
func Read(r io.Reader, opts Options) (Result, error) {
	seg := NewSegmenter(opts)
	splitter := &lineSplitter{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	sc.Split(splitter.split)

	lines := 0
	for sc.Scan() {
		seg.AddLine(sc.Text())
		lines++
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("read lines: %w", err)
	}
	if lines == 0 || splitter.terminated {
		seg.AddLine("")
	}
	return seg.Result(), nil
}

// ReadFile segments the file at path.
func ReadFile(path string, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, opts)
}
