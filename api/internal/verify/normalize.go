package verify

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"claim-verifier/api/internal/util"
)

// verdictFields is the typed view of a model reply. A nil pointer means the field was
// missing or had the wrong JSON type.
type verdictFields struct {
	Label       *string
	Confidence  *float64
	Explanation *string
}

// Normalize turns an arbitrary model reply into a schema-valid Result. It never fails.
func Normalize(raw string) Result {
	res, _ := normalize(raw)
	return res
}

// normalize reports whether a JSON object was found in raw.
func normalize(raw string) (Result, bool) {
	obj, ok := extractObject(raw)
	if !ok {
		return Fallback(UnparsedExplanation), false
	}
	f := readFields(obj)

	label := LabelNotEnoughEvidence
	if f.Label != nil {
		label = ParseLabel(*f.Label)
	}
	conf := DefaultConfidence
	if f.Confidence != nil {
		conf = *f.Confidence
	}
	var explanation string
	if f.Explanation != nil {
		explanation = *f.Explanation
	}
	return CoerceResult(label, conf, explanation), true
}

// extractObject parses raw as a JSON object. Failing that it strips markdown fences and
// then scans for the first balanced {...} span that decodes to an object.
func extractObject(raw string) (map[string]any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	if m, ok := decodeObject(raw); ok {
		return m, true
	}
	if s := util.StripCodeFences(raw); s != raw {
		if m, ok := decodeObject(s); ok {
			return m, true
		}
	}
	for from := 0; from < len(raw); {
		idx := strings.IndexByte(raw[from:], '{')
		if idx < 0 {
			break
		}
		start := from + idx
		end := matchBrace(raw, start)
		if end < 0 {
			from = start + 1
			continue
		}
		if m, ok := decodeObject(raw[start : end+1]); ok {
			return m, true
		}
		from = start + 1
	}
	return nil, false
}

// matchBrace returns the index of the brace closing the one at start, skipping braces
// inside JSON string literals, or -1 if it is never closed.
func matchBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// trailing garbage means this was not a single object
	if dec.More() {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func readFields(obj map[string]any) verdictFields {
	var f verdictFields
	if s, ok := lookup(obj, "label").(string); ok {
		f.Label = &s
	}
	if c, ok := toFloat(lookup(obj, "confidence")); ok {
		f.Confidence = &c
	}
	if s, ok := lookup(obj, "explanation").(string); ok {
		f.Explanation = &s
	}
	return f
}

// lookup prefers the exact key and falls back to a case-insensitive match.
func lookup(obj map[string]any, key string) any {
	if v, ok := obj[key]; ok {
		return v
	}
	for k, v := range obj {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return v
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		pct := strings.HasSuffix(s, "%")
		s = strings.TrimSuffix(s, "%")
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if pct {
			f /= 100
		}
	default:
		return 0, false
	}
	// infinities are kept and clamped later
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
