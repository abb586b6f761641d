/*
Package extract pulls the structured answer out of free-form model output.

Models rarely return clean JSON. They add commentary, code fences, echo the
instructions back, or emit several candidate objects. The Extractor looks for
an answer marker and takes the first well-formed JSON object that follows it.
*/
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/theapemachine/analogy/pkg/errors"
)

/*
DefaultMarker matches "## Final Answer:", "Final Answer:" and the usual
variations in case and heading depth.
*/
const DefaultMarker = `(?i)(?:#+[ \t]*)?final[ \t]+answer[ \t]*:`

/*
Extractor locates an answer marker and parses the JSON object after it.
It is safe for concurrent use.
*/
type Extractor struct {
	marker *regexp.Regexp
}

type ExtractorOption func(*Extractor)

func NewExtractor(options ...ExtractorOption) *Extractor {
	extractor := &Extractor{
		marker: regexp.MustCompile(DefaultMarker),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor
}

/*
WithMarker swaps the answer marker pattern. An empty pattern keeps the default.
*/
func WithMarker(pattern string) ExtractorOption {
	return func(extractor *Extractor) {
		if pattern == "" {
			return
		}

		extractor.marker = regexp.MustCompile(pattern)
	}
}

/*
NewExtractorWithMarker is NewExtractor for a marker pattern that comes from
configuration and may not compile.
*/
func NewExtractorWithMarker(pattern string) (*Extractor, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("invalid answer marker %q: %w", pattern, err)
	}

	return NewExtractor(WithMarker(pattern)), nil
}

/*
Extract returns the first well-formed JSON object that follows an answer
marker. A missing marker, or a marker followed only by malformed objects,
is an UnparsableOutput error. It never returns an empty result without an
error.
*/
func (extractor *Extractor) Extract(text string) (map[string]any, error) {
	locations := extractor.marker.FindAllStringIndex(text, -1)

	if len(locations) == 0 {
		return nil, errors.ErrUnparsableOutput.WithMessagef("no answer marker found")
	}

	candidates := 0

	for _, loc := range locations {
		rest := text[loc[1]:]

		for offset := 0; offset < len(rest); {
			start, end, ok := nextBlock(rest, offset)

			if start < 0 {
				break
			}

			// Nested and later objects stay candidates.
			offset = start + 1

			if !ok {
				continue
			}

			candidates++

			var out map[string]any

			if err := json.Unmarshal([]byte(rest[start:end]), &out); err == nil {
				return out, nil
			}
		}
	}

	if candidates == 0 {
		return nil, errors.ErrUnparsableOutput.WithMessagef("no structured block after answer marker")
	}

	return nil, errors.ErrUnparsableOutput.WithMessagef(
		"none of %d structured blocks after answer marker is well-formed", candidates,
	)
}

/*
Blocks returns the balanced top-level {...} spans in text, in order. Braces
inside JSON strings are ignored. An opening brace that is never closed is
skipped and scanning resumes right after it.
*/
func Blocks(text string) []string {
	var blocks []string

	for offset := 0; offset < len(text); {
		start, end, ok := nextBlock(text, offset)

		if start < 0 {
			break
		}

		if !ok {
			offset = start + 1
			continue
		}

		blocks = append(blocks, text[start:end])
		offset = end
	}

	return blocks
}

/*
nextBlock finds the first '{' at or after offset and the end of the object
it opens. start is -1 when there is no opening brace left, ok is false when
the object never closes.
*/
func nextBlock(text string, offset int) (start, end int, ok bool) {
	rel := strings.IndexByte(text[offset:], '{')

	if rel < 0 {
		return -1, -1, false
	}

	start = offset + rel

	var (
		depth    int
		inString bool
		escaped  bool
	)

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}

			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--

			if depth == 0 {
				return start, i + 1, true
			}
		}
	}

	return start, -1, false
}
