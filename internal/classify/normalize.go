package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/teemow/inboxtally/internal/llm"
)

// ErrMalformedOutput is wrapped when model text is not a usable classification.
var ErrMalformedOutput = errors.New("malformed model output")

// Normalize turns a completion into a Classification. It never fails:
// output that does not parse yields Fallback().
func Normalize(c llm.Completion) Classification {
	cl, err := Parse(c.Text)
	if err != nil {
		return Fallback()
	}
	return cl
}

// Parse strictly decodes text as one JSON object carrying a string Category.
// Keys match case-insensitively. Unknown categories become Uncategorized and
// unknown priority or response values become empty.
func Parse(text string) (Classification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Classification{}, fmt.Errorf("%w: empty", ErrMalformedOutput)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return Classification{}, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	// decoding null into a map leaves it nil
	if fields == nil {
		return Classification{}, fmt.Errorf("%w: not an object", ErrMalformedOutput)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Classification{}, fmt.Errorf("%w: trailing data after object", ErrMalformedOutput)
	}

	category, ok, err := stringField(fields, "Category")
	if err != nil {
		return Classification{}, err
	}
	if !ok {
		return Classification{}, fmt.Errorf("%w: missing Category", ErrMalformedOutput)
	}
	priority, _, _ := stringField(fields, "Priority")
	response, _, _ := stringField(fields, "RequiresResponse")

	return Classification{
		Category:         canonicalCategory(category),
		Priority:         canonicalPriority(priority),
		RequiresResponse: canonicalResponse(response),
	}, nil
}

// stringField finds key case-insensitively, preferring an exact match. Among
// keys differing only in case the first in sorted order wins.
func stringField(fields map[string]json.RawMessage, key string) (string, bool, error) {
	raw, ok := fields[key]
	if !ok {
		for _, k := range slices.Sorted(maps.Keys(fields)) {
			if strings.EqualFold(k, key) {
				raw, ok = fields[k], true
				break
			}
		}
	}
	if !ok {
		return "", false, nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false, fmt.Errorf("%w: %s is not a string", ErrMalformedOutput, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, fmt.Errorf("%w: %s is not a string", ErrMalformedOutput, key)
	}
	return s, true, nil
}
