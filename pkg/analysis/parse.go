package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/menta2k/product-booth/pkg/client"
	"github.com/menta2k/product-booth/pkg/types"
)

var errNotObject = errors.New("not a JSON object")

// ParseResponse extracts an AnalysisResult from the completion text. It
// accepts a fenced block, a bare object, or an object followed by prose.
// Anything else fails with client.ErrMalformedResponse.
func ParseResponse(raw string) (*types.AnalysisResult, error) {
	text := stripFences(raw)

	var result types.AnalysisResult
	var err error
	if strings.HasPrefix(text, "{") {
		err = json.Unmarshal([]byte(text), &result)
	} else {
		err = errNotObject
	}
	if err != nil {
		obj, ok := firstObject(text)
		if !ok {
			return nil, fmt.Errorf("%w: no JSON object found (length %d)", client.ErrMalformedResponse, len(raw))
		}
		result = types.AnalysisResult{}
		if err2 := json.Unmarshal([]byte(obj), &result); err2 != nil {
			return nil, fmt.Errorf("%w: %v", client.ErrMalformedResponse, err2)
		}
	}

	result.Title = strings.TrimSpace(result.Title)
	result.Details.Features = normalizeFeatures(result.Details.Features)
	return &result, nil
}

// stripFences removes leading ```json / ``` and trailing ``` markers
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimPrefix(raw, "json")
		raw = strings.TrimPrefix(raw, "JSON")
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// firstObject returns the first balanced {...} substring, honouring
// string literals so braces inside values do not end the scan early.
func firstObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// normalizeFeatures trims entries and drops blanks and duplicates. The
// literal "null" is kept so the stored record matches what the model said.
func normalizeFeatures(in types.List) types.List {
	if in == nil {
		return nil
	}
	seen := map[string]struct{}{}
	out := make(types.List, 0, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		key := strings.ToLower(f)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
