// Package credibility scores evidence sources and suggests follow-up searches.
package credibility

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// known outlets, keyed by registered domain
var known = map[string]float64{
	"bbc.com":         0.90,
	"reuters.com":     0.92,
	"apnews.com":      0.90,
	"nytimes.com":     0.88,
	"theguardian.com": 0.85,
	"aljazeera.com":   0.82,
	"wikipedia.org":   0.75,
	"reddit.com":      0.55,
	"x.com":           0.45,
	"twitter.com":     0.45,
}

// outlets maps a bare outlet name, lower case first word, to its entry in known.
var outlets = map[string]string{
	"bbc":         "bbc.com",
	"reuters":     "reuters.com",
	"apnews":      "apnews.com",
	"nytimes":     "nytimes.com",
	"guardian":    "theguardian.com",
	"theguardian": "theguardian.com",
	"aljazeera":   "aljazeera.com",
	"wikipedia":   "wikipedia.org",
	"reddit":      "reddit.com",
	"x":           "x.com",
	"twitter":     "twitter.com",
}

const neutralScore = 0.5

type Assessment struct {
	Domain    string  `json:"domain"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Score estimates how reliable a URL, domain or outlet name is. It never fails; anything
// unrecognisable gets the neutral score.
func Score(urlOrSource string) Assessment {
	domain := domainOf(urlOrSource)
	if domain == "" {
		return Assessment{Domain: urlOrSource, Score: neutralScore, Rationale: "Unrecognised source."}
	}
	if d, s, ok := lookupKnown(domain); ok {
		return Assessment{Domain: d, Score: s, Rationale: "Known outlet (static map)."}
	}
	score := neutralScore
	switch {
	case hasAnySuffix(domain, ".gov", ".edu"):
		score += 0.25
	case hasAnySuffix(domain, ".info", ".xyz", ".blog"):
		score -= 0.1
	}
	return Assessment{Domain: domain, Score: round(clamp01(score), 2), Rationale: "Heuristic fallback."}
}

func domainOf(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Hostname() != "" {
			return strings.TrimPrefix(u.Hostname(), "www.")
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "www.")
}

// lookupKnown matches the domain, any parent domain, or for bare outlet names
// ("Wikipedia", "BBC News") the first word through outlets.
func lookupKnown(domain string) (string, float64, bool) {
	if !strings.Contains(domain, ".") || strings.Contains(domain, " ") {
		d, ok := outlets[strings.Fields(domain)[0]]
		if !ok {
			return "", 0, false
		}
		s, ok := known[d]
		return d, s, ok
	}
	for d := domain; d != ""; {
		if s, ok := known[d]; ok {
			return d, s, true
		}
		i := strings.IndexByte(d, '.')
		if i < 0 {
			break
		}
		d = d[i+1:]
	}
	return "", 0, false
}

// Stance is a coarse reading of how an evidence text is phrased.
type Stance string

const (
	StanceAssertion   Stance = "assertion"
	StanceSpeculation Stance = "speculation"
	StanceOpinion     Stance = "opinion"
	StanceQuestion    Stance = "question"
)

var assertionWords = []string{"confirmed", "announced", "stated", "said"}

// DetectStance treats short texts as speculation and reporting verbs as assertions.
func DetectStance(text string) Stance {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) < 40 {
		return StanceSpeculation
	}
	if strings.HasSuffix(text, "?") {
		return StanceQuestion
	}
	for _, w := range assertionWords {
		if strings.Contains(text, w) {
			return StanceAssertion
		}
	}
	return StanceSpeculation
}

// TrustScore combines source credibility with content signals:
// +0.05 for assertions, -0.05 for speculation or questions, -0.10 per fallacy
// (at most two), +0.05 for content of 600 chars or more. The result is in [0,1],
// rounded to 3 decimals.
func TrustScore(cred float64, stance Stance, fallacies []string, contentLen int) float64 {
	score := clamp01(cred)
	switch stance {
	case StanceAssertion:
		score += 0.05
	case StanceSpeculation, StanceQuestion:
		score -= 0.05
	}
	score -= 0.10 * float64(min(len(fallacies), 2))
	if contentLen >= 600 {
		score += 0.05
	}
	return clamp01(round(score, 3))
}

// Evaluation is the per-evidence summary returned by Assess.
type Evaluation struct {
	Assessment
	Stance Stance  `json:"stance"`
	Trust  float64 `json:"trust"`
}

// Assess scores one evidence item. The URL wins over the source name when both are set.
func Assess(source, rawURL, content string) Evaluation {
	ref := rawURL
	if strings.TrimSpace(ref) == "" {
		ref = source
	}
	a := Score(ref)
	st := DetectStance(content)
	return Evaluation{
		Assessment: a,
		Stance:     st,
		Trust:      TrustScore(a.Score, st, nil, len(content)),
	}
}

const maxQueryLen = 140

// NextQuery suggests a search for stronger sources. It returns "" when at least two
// trust scores are 0.75 or above and none is below 0.4.
func NextQuery(query string, trust []float64) string {
	query = strings.TrimSpace(query)
	var high, low int
	for _, t := range trust {
		switch {
		case t >= 0.75:
			high++
		case t < 0.4:
			low++
		}
	}
	if high >= 2 && low == 0 {
		return ""
	}
	var q string
	if len(trust) == 0 {
		q = fmt.Sprintf(`%s site:reuters.com OR site:apnews.com "official statement"`, query)
	} else {
		q = fmt.Sprintf(`%s site:reuters.com OR site:apnews.com OR site:bbc.com "official statement"`, query)
	}
	if r := []rune(q); len(r) > maxQueryLen {
		q = string(r[:maxQueryLen])
	}
	return q
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
