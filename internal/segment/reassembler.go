package segment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Translation pairs a source segment with the provider's text for it.
type Translation struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Reassemble joins translated segments into lines. A segment whose source was
// an empty placeholder ends the current line, and so does the last segment.
func Reassemble(items []Translation) []string {
	var (
		lines []string
		line  strings.Builder
	)
	for i, t := range items {
		if t.Source != "" {
			line.WriteString(t.Text)
		}
		if t.Source == "" || i == len(items)-1 {
			lines = append(lines, line.String())
			line.Reset()
		}
	}
	return lines
}

// WriteLines writes each line followed by a newline.
func WriteLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.WriteString(l); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Join renders lines the way WriteLines would.
func Join(lines []string) string {
	var b strings.Builder
	_ = WriteLines(&b, lines)
	return b.String()
}

// WriteFile truncates path and writes lines to it.
func WriteFile(path string, lines []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteLines(f, lines); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Rebuild reassembles the untranslated segments. It shows the line structure
// a translation of r will come back with.
func (r Result) Rebuild() []string {
	texts := r.Texts()
	items := make([]Translation, len(texts))
	for i, t := range texts {
		items[i] = Translation{Source: t, Text: t}
	}
	return Reassemble(items)
}
