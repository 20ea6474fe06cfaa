// Package batchprompt turns a batch of segments into a single LLM prompt and
// maps the model's JSON answer back onto the batch.
package batchprompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request holds the non-empty texts of a batch and where they came from.
// Empty segments are line-break placeholders and are never sent.
type Request struct {
	size    int
	indexes []int
	texts   []string
}

func NewRequest(texts []string) Request {
	r := Request{size: len(texts)}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		r.indexes = append(r.indexes, i)
		r.texts = append(r.texts, t)
	}
	return r
}

// Empty reports whether nothing needs translating.
func (r Request) Empty() bool { return len(r.texts) == 0 }

// Prompt renders the instruction for translating the batch.
func (r Request) Prompt(from, to string) string {
	payload, _ := json.Marshal(r.texts)

	b := strings.Builder{}
	b.WriteString("You are a professional document translator.\n")
	if from != "" {
		b.WriteString(fmt.Sprintf("Source language: %s\n", from))
	} else {
		b.WriteString("Source language: detect automatically\n")
	}
	b.WriteString(fmt.Sprintf("Target language: %s\n", to))
	b.WriteString(fmt.Sprintf("Translate each element of the JSON array below. Respond with only a JSON array of exactly %d strings, in the same order. ", len(r.texts)))
	b.WriteString("Keep leading and trailing spaces of every element.\n")
	b.WriteString("INPUT:\n")
	b.Write(payload)
	return b.String()
}

// Decode parses the model output and returns one translation per original
// text, with empty texts passed through unchanged.
func (r Request) Decode(content string) ([]string, error) {
	out := make([]string, r.size)
	if r.Empty() {
		return out, nil
	}

	var got []string
	if err := json.Unmarshal([]byte(stripFence(content)), &got); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	if len(got) != len(r.texts) {
		return nil, fmt.Errorf("model returned %d translations for %d texts", len(got), len(r.texts))
	}
	for i, idx := range r.indexes {
		out[idx] = got[i]
	}
	return out, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := strings.TrimPrefix(s[i+3:], "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	if i, j := strings.Index(s, "["), strings.LastIndex(s, "]"); i >= 0 && j > i {
		return s[i : j+1]
	}
	return s
}
