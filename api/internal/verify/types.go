package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

type Label string

const (
	LabelSupported         Label = "SUPPORTED"
	LabelRefuted           Label = "REFUTED"
	LabelNotEnoughEvidence Label = "NOT_ENOUGH_EVIDENCE"
)

// Labels lists the verdict enumeration in a stable order.
var Labels = []Label{LabelSupported, LabelRefuted, LabelNotEnoughEvidence}

func (l Label) Valid() bool {
	switch l {
	case LabelSupported, LabelRefuted, LabelNotEnoughEvidence:
		return true
	}
	return false
}

func (l Label) String() string { return string(l) }

// ParseLabel uppercases and trims s; anything outside the enumeration maps to NOT_ENOUGH_EVIDENCE.
func ParseLabel(s string) Label {
	l := Label(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return LabelNotEnoughEvidence
	}
	return l
}

const (
	// DefaultConfidence is used when the model omits confidence or sends a non-number.
	DefaultConfidence = 0.3
	// FallbackConfidence is used for unparsable replies and failed calls.
	FallbackConfidence = 0.1

	NoExplanation       = "No explanation provided."
	UnparsedExplanation = "Model response could not be parsed."
)

var (
	ErrInvalidLabel     = errors.New("label must be one of SUPPORTED, REFUTED, NOT_ENOUGH_EVIDENCE")
	ErrConfidenceRange  = errors.New("confidence must be between 0 and 1")
	ErrEmptyExplanation = errors.New("explanation must not be empty")
)

// EvidenceItem is one (source, content) pair supplied as context for a claim.
// URL is optional and only feeds credibility hints in the prompt.
type EvidenceItem struct {
	Source  string `json:"source"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
}

// Result is a schema-valid verdict. Fields are unexported so a Result can only come from
// NewResult, CoerceResult, Fallback or Normalize. The zero value reads as a
// NOT_ENOUGH_EVIDENCE fallback with zero confidence.
type Result struct {
	label       Label
	confidence  float64
	explanation string
}

// NewResult rejects any input outside the schema.
func NewResult(label Label, confidence float64, explanation string) (Result, error) {
	if !label.Valid() {
		return Result{}, fmt.Errorf("%w, got %q", ErrInvalidLabel, string(label))
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return Result{}, fmt.Errorf("%w, got %v", ErrConfidenceRange, confidence)
	}
	explanation = strings.TrimSpace(explanation)
	if explanation == "" {
		return Result{}, ErrEmptyExplanation
	}
	return Result{label: label, confidence: confidence, explanation: explanation}, nil
}

// CoerceResult never fails: unknown labels become NOT_ENOUGH_EVIDENCE, confidence is clamped
// (NaN becomes DefaultConfidence) and a blank explanation becomes NoExplanation.
func CoerceResult(label Label, confidence float64, explanation string) Result {
	if !label.Valid() {
		label = ParseLabel(string(label))
	}
	explanation = strings.TrimSpace(explanation)
	if explanation == "" {
		explanation = NoExplanation
	}
	return Result{label: label, confidence: clampConfidence(confidence), explanation: explanation}
}

// Fallback is the low-confidence NOT_ENOUGH_EVIDENCE result used when no verdict could be obtained.
func Fallback(explanation string) Result {
	return CoerceResult(LabelNotEnoughEvidence, FallbackConfidence, explanation)
}

func (r Result) Label() Label {
	if r.label == "" {
		return LabelNotEnoughEvidence
	}
	return r.label
}

func (r Result) Confidence() float64 { return r.confidence }

func (r Result) Explanation() string {
	if r.explanation == "" {
		return NoExplanation
	}
	return r.explanation
}

func (r Result) String() string {
	return fmt.Sprintf("%s (%.2f): %s", r.Label(), r.Confidence(), r.Explanation())
}

type resultJSON struct {
	Label       Label   `json:"label"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Label:       r.Label(),
		Confidence:  r.Confidence(),
		Explanation: r.Explanation(),
	})
}

// UnmarshalJSON is strict: it goes through NewResult, use Normalize for untrusted text.
func (r *Result) UnmarshalJSON(b []byte) error {
	var in resultJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	res, err := NewResult(in.Label, in.Confidence, in.Explanation)
	if err != nil {
		return err
	}
	*r = res
	return nil
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c):
		return DefaultConfidence
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
