package verify

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	t.Run("Should accept every enumeration member regardless of case", func(t *testing.T) {
		for _, l := range Labels {
			assert.Equal(t, l, ParseLabel(" "+string(l)+" "))
		}
		assert.Equal(t, LabelSupported, ParseLabel("supported"))
	})
	t.Run("Should map unknown labels to NOT_ENOUGH_EVIDENCE", func(t *testing.T) {
		for _, s := range []string{"", "TRUE", "MAYBE", "not enough evidence"} {
			assert.Equal(t, LabelNotEnoughEvidence, ParseLabel(s))
		}
	})
}

func TestNewResult(t *testing.T) {
	t.Run("Should build a valid result", func(t *testing.T) {
		res, err := NewResult(LabelSupported, 0.92, " Evidence confirms location. ")
		require.NoError(t, err)
		assert.Equal(t, LabelSupported, res.Label())
		assert.Equal(t, 0.92, res.Confidence())
		assert.Equal(t, "Evidence confirms location.", res.Explanation())
	})
	t.Run("Should accept confidence bounds", func(t *testing.T) {
		_, err := NewResult(LabelRefuted, 0, "x")
		require.NoError(t, err)
		_, err = NewResult(LabelRefuted, 1, "x")
		require.NoError(t, err)
	})
	t.Run("Should reject an invalid label", func(t *testing.T) {
		_, err := NewResult(Label("TRUE"), 0.5, "x")
		assert.ErrorIs(t, err, ErrInvalidLabel)
	})
	t.Run("Should reject out of range confidence", func(t *testing.T) {
		for _, c := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
			_, err := NewResult(LabelSupported, c, "x")
			assert.ErrorIs(t, err, ErrConfidenceRange)
		}
	})
	t.Run("Should reject a blank explanation", func(t *testing.T) {
		_, err := NewResult(LabelSupported, 0.5, "  ")
		assert.ErrorIs(t, err, ErrEmptyExplanation)
	})
}

func TestCoerceResult(t *testing.T) {
	t.Run("Should clamp and default every field", func(t *testing.T) {
		res := CoerceResult(Label("maybe"), 1.5, "")
		assert.Equal(t, LabelNotEnoughEvidence, res.Label())
		assert.Equal(t, 1.0, res.Confidence())
		assert.Equal(t, NoExplanation, res.Explanation())
	})
	t.Run("Should normalize a lower case label", func(t *testing.T) {
		assert.Equal(t, LabelRefuted, CoerceResult(Label("refuted"), 0.4, "x").Label())
	})
	t.Run("Should replace NaN with the default confidence", func(t *testing.T) {
		assert.Equal(t, DefaultConfidence, CoerceResult(LabelSupported, math.NaN(), "x").Confidence())
	})
	t.Run("Should clamp infinities", func(t *testing.T) {
		assert.Equal(t, 0.0, CoerceResult(LabelSupported, math.Inf(-1), "x").Confidence())
		assert.Equal(t, 1.0, CoerceResult(LabelSupported, math.Inf(1), "x").Confidence())
	})
}

func TestFallback(t *testing.T) {
	t.Run("Should produce a low confidence NOT_ENOUGH_EVIDENCE result", func(t *testing.T) {
		res := Fallback("Verification unavailable: timeout.")
		assert.Equal(t, LabelNotEnoughEvidence, res.Label())
		assert.Equal(t, FallbackConfidence, res.Confidence())
		assert.Equal(t, "Verification unavailable: timeout.", res.Explanation())
	})
}

func TestResult_ZeroValue(t *testing.T) {
	t.Run("Should read as a schema-valid result", func(t *testing.T) {
		var res Result
		assert.Equal(t, LabelNotEnoughEvidence, res.Label())
		assert.Equal(t, 0.0, res.Confidence())
		assert.Equal(t, NoExplanation, res.Explanation())
	})
}

func TestResult_JSON(t *testing.T) {
	t.Run("Should marshal the three public fields", func(t *testing.T) {
		res, err := NewResult(LabelRefuted, 0.8, "False")
		require.NoError(t, err)
		b, err := json.Marshal(res)
		require.NoError(t, err)
		assert.JSONEq(t, `{"label":"REFUTED","confidence":0.8,"explanation":"False"}`, string(b))
	})
	t.Run("Should marshal the zero value as valid JSON", func(t *testing.T) {
		b, err := json.Marshal(Result{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"label":"NOT_ENOUGH_EVIDENCE","confidence":0,"explanation":"No explanation provided."}`, string(b))
	})
	t.Run("Should unmarshal strictly", func(t *testing.T) {
		var res Result
		require.NoError(t, json.Unmarshal([]byte(`{"label":"SUPPORTED","confidence":0.5,"explanation":"ok"}`), &res))
		assert.Equal(t, LabelSupported, res.Label())

		err := json.Unmarshal([]byte(`{"label":"SUPPORTED","confidence":2,"explanation":"ok"}`), &res)
		assert.ErrorIs(t, err, ErrConfidenceRange)
	})
}

func TestResult_String(t *testing.T) {
	t.Run("Should render label, confidence and explanation", func(t *testing.T) {
		res := CoerceResult(LabelSupported, 0.5, "ok")
		assert.Equal(t, "SUPPORTED (0.50): ok", res.String())
	})
}
