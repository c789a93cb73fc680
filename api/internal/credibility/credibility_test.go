package credibility

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	t.Run("Should use the static map for known outlets", func(t *testing.T) {
		a := Score("https://www.reuters.com/world/some-story")
		assert.Equal(t, "reuters.com", a.Domain)
		assert.Equal(t, 0.92, a.Score)
		assert.Equal(t, "Known outlet (static map).", a.Rationale)
	})

	t.Run("Should fold subdomains into the registered entry", func(t *testing.T) {
		a := Score("https://en.wikipedia.org/wiki/Eiffel_Tower")
		assert.Equal(t, "wikipedia.org", a.Domain)
		assert.Equal(t, 0.75, a.Score)
	})

	t.Run("Should match bare outlet names", func(t *testing.T) {
		assert.Equal(t, 0.75, Score("Wikipedia").Score)
		assert.Equal(t, 0.90, Score("BBC News").Score)
		a := Score("Guardian")
		assert.Equal(t, "theguardian.com", a.Domain)
		assert.Equal(t, 0.85, a.Score)
	})

	t.Run("Should resolve every outlet name to a known domain", func(t *testing.T) {
		for name, d := range outlets {
			_, ok := known[d]
			assert.True(t, ok, "outlet %q points at unknown domain %q", name, d)
			assert.Equal(t, d, Score(name).Domain)
		}
	})

	t.Run("Should boost government and education domains", func(t *testing.T) {
		a := Score("https://www.cdc.gov/flu")
		assert.Equal(t, "cdc.gov", a.Domain)
		assert.Equal(t, 0.75, a.Score)
		assert.Equal(t, "Heuristic fallback.", a.Rationale)
	})

	t.Run("Should penalise low-signal TLDs", func(t *testing.T) {
		assert.Equal(t, 0.4, Score("randomblog.xyz/post/1").Score)
	})

	t.Run("Should return the neutral score for unknown or empty sources", func(t *testing.T) {
		assert.Equal(t, 0.5, Score("example.com").Score)
		assert.Equal(t, 0.5, Score("").Score)
		assert.Equal(t, 0.5, Score("Britannica").Score)
	})
}

func TestDetectStance(t *testing.T) {
	t.Run("Should treat short texts as speculation", func(t *testing.T) {
		assert.Equal(t, StanceSpeculation, DetectStance("It was said."))
	})
	t.Run("Should detect reporting verbs as assertions", func(t *testing.T) {
		assert.Equal(t, StanceAssertion, DetectStance("The official spokesperson announced that the project had finished."))
	})
	t.Run("Should detect questions", func(t *testing.T) {
		assert.Equal(t, StanceQuestion, DetectStance("Is it really the case that the tower was painted purple in 2024?"))
	})
}

func TestTrustScore(t *testing.T) {
	cases := []struct {
		name       string
		cred       float64
		stance     Stance
		fallacies  []string
		contentLen int
		want       float64
	}{
		{"assertion bonus", 0.9, StanceAssertion, nil, 100, 0.95},
		{"speculation penalty", 0.5, StanceSpeculation, nil, 100, 0.45},
		{"opinion is neutral", 0.5, StanceOpinion, nil, 100, 0.5},
		{"fallacy penalty is capped at two", 0.9, StanceOpinion, []string{"a", "b", "c"}, 100, 0.7},
		{"length bonus", 0.5, StanceOpinion, nil, 600, 0.55},
		{"clamped at one", 1.2, StanceAssertion, nil, 1000, 1},
		{"clamped at zero", 0.1, StanceQuestion, []string{"a", "b"}, 0, 0},
	}
	for _, tc := range cases {
		t.Run("Should apply "+tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, TrustScore(tc.cred, tc.stance, tc.fallacies, tc.contentLen), 1e-9)
		})
	}
}

func TestAssess(t *testing.T) {
	t.Run("Should prefer the URL over the source name", func(t *testing.T) {
		e := Assess("Some Blog", "https://apnews.com/article/x", strings.Repeat("officials confirmed the result. ", 20))
		assert.Equal(t, "apnews.com", e.Domain)
		assert.Equal(t, StanceAssertion, e.Stance)
		assert.InDelta(t, 1.0, e.Trust, 1e-9)
	})
}

func TestNextQuery(t *testing.T) {
	t.Run("Should return empty when evidence is strong and consistent", func(t *testing.T) {
		assert.Empty(t, NextQuery("claim", []float64{0.8, 0.9, 0.6}))
	})
	t.Run("Should ask for more when strong and weak evidence conflict", func(t *testing.T) {
		q := NextQuery("Did X resign?", []float64{0.8, 0.9, 0.2})
		assert.True(t, strings.HasPrefix(q, "Did X resign? site:reuters.com"))
		assert.Contains(t, q, "site:bbc.com")
	})
	t.Run("Should suggest primary sources when nothing was analysed", func(t *testing.T) {
		q := NextQuery("Did X resign?", nil)
		assert.NotContains(t, q, "site:bbc.com")
		assert.Contains(t, q, "site:apnews.com")
	})
	t.Run("Should cap the query length", func(t *testing.T) {
		q := NextQuery(strings.Repeat("long ", 60), []float64{0.5})
		assert.LessOrEqual(t, len([]rune(q)), 140)
	})
}
