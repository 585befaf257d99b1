// Package textprep turns a Chunk into one or more token-safe strings ready
// for the embedding client, splitting oversized text in three falling-back
// passes: lines, then sentences, then raw characters, each level only
// kicking in once the level above it fails to bring a piece under budget.
package textprep

import (
	"strings"

	"codelore/internal/chunkmodel"
)

const (
	// defaultMaxTokens is the target upper bound on a single embedded text,
	// used when Config leaves MaxTokens unset.
	defaultMaxTokens = 6000
	// defaultCharsPerToken is the crude character-per-token estimate used
	// instead of running a real tokenizer, used when Config leaves
	// CharsPerToken unset.
	defaultCharsPerToken = 3
)

// Config carries the token-budget options spec §6 exposes for text
// preparation. A zero Config falls back to defaultMaxTokens and
// defaultCharsPerToken.
type Config struct {
	MaxTokens     int
	CharsPerToken int
}

func (c Config) maxChars() int {
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	charsPerToken := c.CharsPerToken
	if charsPerToken <= 0 {
		charsPerToken = defaultCharsPerToken
	}
	return maxTokens * charsPerToken
}

// Piece is one token-safe text derived from a Chunk, carrying the id it
// should be stored under (spec §4.2: split pieces retain the parent's
// identity and payload, but get a distinguishable, co-locatable id).
type Piece struct {
	ID   string
	Text string
}

// Prepare assembles the searchable text for a chunk and splits it into
// token-safe pieces if it's too large to embed in one call. cfg supplies
// the token budget (spec §6's max_tokens/chars_per_token); a zero Config
// uses the package defaults.
func Prepare(chunk chunkmodel.Chunk, cfg Config) []Piece {
	parts := []string{chunk.QualifiedName}
	if chunk.Namespace != "" {
		parts = append(parts, chunk.Namespace)
	}
	parts = append(parts, chunk.Content)
	text := strings.Join(parts, "\n")

	maxChars := cfg.maxChars()
	if len(text) <= maxChars {
		return []Piece{{ID: chunk.ID, Text: text}}
	}

	var pieces []Piece
	for i, part := range splitByLines(text, maxChars) {
		pieces = append(pieces, Piece{ID: chunkmodel.SplitID(chunk.ID, i), Text: part})
	}
	return pieces
}

// splitByLines greedily packs lines into chunks of at most maxChars,
// falling through to sentence- then character-level splitting for any
// single line that alone exceeds the budget.
func splitByLines(text string, maxChars int) []string {
	lines := strings.Split(text, "\n")
	var out []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for _, line := range lines {
		if len(line) > maxChars {
			flush()
			out = append(out, splitBySentences(line, maxChars)...)
			continue
		}
		candidateLen := current.Len() + len(line) + 1
		if current.Len() > 0 && candidateLen > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	flush()
	return out
}

// splitBySentences greedily packs sentences (delimited by '.', '!', '?')
// into pieces of at most maxChars, falling through to a hard character
// split for any single sentence that alone exceeds the budget.
func splitBySentences(line string, maxChars int) []string {
	sentences := splitOnTerminators(line)
	var out []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for _, s := range sentences {
		if len(s) > maxChars {
			flush()
			out = append(out, splitByChars(s, maxChars)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(s) > maxChars {
			flush()
		}
		current.WriteString(s)
	}
	flush()
	if len(out) == 0 {
		return splitByChars(line, maxChars)
	}
	return out
}

// splitOnTerminators splits text after each '.', '!', or '?', keeping the
// terminator attached to the sentence it ends.
func splitOnTerminators(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			sentences = append(sentences, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// splitByChars hard-splits text into maxChars-sized runes runs, the last
// resort when neither a line nor a sentence boundary brings a piece under
// budget.
func splitByChars(text string, maxChars int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
