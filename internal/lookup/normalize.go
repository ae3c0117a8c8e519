// Package lookup turns a medical term into a structured SearchResult by
// fanning out text and image completions and normalizing whatever comes back.
package lookup

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DefaultDefinition is used when the provider's payload carries no
// definition at all.
const DefaultDefinition = "Definition not available."

// fenceRE strips markdown code fences the model tends to wrap JSON in.
var fenceRE = regexp.MustCompile("```json\n?|\n?```")

// Normalized is the structured record extracted from raw completion text.
type Normalized struct {
	Definition string
	KeyPoints  []string
	Sources    []string
}

// Normalize converts raw completion output into a Normalized record.
// The payload is expected to be a JSON object with definition, keyPoints
// and sources, but a malformed response must never surface as a failure:
// on parse failure the whole cleaned text becomes the definition.
// Element types are not validated; non-string elements are kept as their
// textual rendering, and unknown fields are ignored.
func Normalize(raw string) Normalized {
	clean := strings.TrimSpace(fenceRE.ReplaceAllString(raw, ""))

	var payload struct {
		Definition any   `json:"definition"`
		KeyPoints  []any `json:"keyPoints"`
		Sources    []any `json:"sources"`
	}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return Normalized{
			Definition: clean,
			KeyPoints:  []string{},
			Sources:    []string{},
		}
	}

	definition := asString(payload.Definition)
	if definition == "" {
		definition = DefaultDefinition
	}

	return Normalized{
		Definition: definition,
		KeyPoints:  asStrings(payload.KeyPoints),
		Sources:    asStrings(payload.Sources),
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asStrings(vs []any) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s := asString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
