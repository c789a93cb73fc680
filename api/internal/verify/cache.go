package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"claim-verifier/api/internal/logger"
)

// ErrCacheMiss is returned by a Cache when no fresh verdict is stored.
var ErrCacheMiss = errors.New("verdict cache miss")

// Cache stores verdicts keyed by CacheKey.
type Cache interface {
	Find(ctx context.Context, key string, maxAge time.Duration) (Result, error)
	Upsert(ctx context.Context, key, model string, res Result) error
}

// CacheKey is a stable hash of model, claim and evidence.
func CacheKey(model, claim string, evidence []EvidenceItem) string {
	type keyed struct {
		Model    string         `json:"m"`
		Claim    string         `json:"c"`
		Evidence []EvidenceItem `json:"e"`
	}
	norm := make([]EvidenceItem, len(evidence))
	for i, e := range evidence {
		norm[i] = EvidenceItem{
			Source:  strings.TrimSpace(e.Source),
			Content: strings.TrimSpace(e.Content),
			URL:     strings.TrimSpace(e.URL),
		}
	}
	b, _ := json.Marshal(keyed{Model: model, Claim: strings.TrimSpace(claim), Evidence: norm})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// CachedVerifier consults a Cache before calling the model. Only real verdicts are
// stored; fallbacks are always recomputed. Cache failures never affect the result.
type CachedVerifier struct {
	v      *Verifier
	cache  Cache
	maxAge time.Duration
}

func NewCached(v *Verifier, cache Cache, maxAge time.Duration) *CachedVerifier {
	return &CachedVerifier{v: v, cache: cache, maxAge: maxAge}
}

func (c *CachedVerifier) VerifyClaim(ctx context.Context, claim string, evidence []EvidenceItem) Result {
	log := logger.FromContext(ctx)
	model := c.v.cfg.ModelName
	key := CacheKey(model, claim, evidence)

	res, err := c.cache.Find(ctx, key, c.maxAge)
	switch {
	case err == nil:
		log.Debug("verdict cache hit", "key", key[:12])
		return res
	case !errors.Is(err, ErrCacheMiss):
		log.Warn("verdict cache lookup failed", "error", err)
	}

	res, outcome := c.v.Check(ctx, claim, evidence)
	if outcome != OutcomeVerdict {
		return res
	}
	if err := c.cache.Upsert(ctx, key, model, res); err != nil {
		log.Warn("verdict cache store failed", "error", err)
	}
	return res
}

func (c *CachedVerifier) VerifyClaimBatch(ctx context.Context, items []BatchItem) []Result {
	return runBatch(ctx, items, c.v.cfg.BatchConcurrency, func(ctx context.Context, it BatchItem) Result {
		return c.VerifyClaim(ctx, it.Claim, it.Evidence)
	})
}
