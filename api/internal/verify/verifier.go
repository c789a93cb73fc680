package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"claim-verifier/api/internal/logger"
)

const (
	DefaultModelName        = "gemini-1.5-flash"
	DefaultTemperature      = float32(0.1)
	DefaultTimeout          = 60 * time.Second
	DefaultRetryAttempts    = 2
	DefaultRetryBackoff     = 300 * time.Millisecond
	DefaultBatchConcurrency = 4

	maxRetryBackoff = 5 * time.Second
)

// Model is the external completion service: prompt in, raw text out.
type Model interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

func (f ModelFunc) Invoke(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

// Config is passed to the verifier at construction; there are no package-level settings.
type Config struct {
	APIKey      string
	ModelName   string
	Temperature float32
	// Timeout bounds one claim including retries; zero disables it.
	Timeout time.Duration
	// RetryAttempts is the number of extra calls after a retryable failure.
	RetryAttempts    int
	RetryBackoff     time.Duration
	BatchConcurrency int
}

func DefaultConfig() Config {
	return Config{
		ModelName:        DefaultModelName,
		Temperature:      DefaultTemperature,
		Timeout:          DefaultTimeout,
		RetryAttempts:    DefaultRetryAttempts,
		RetryBackoff:     DefaultRetryBackoff,
		BatchConcurrency: DefaultBatchConcurrency,
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if strings.TrimSpace(c.ModelName) == "" {
		errs = append(errs, errors.New("model name is empty"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %v out of range [0,2]", c.Temperature))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.RetryAttempts < 0 || c.RetryAttempts > 10 {
		errs = append(errs, fmt.Errorf("retry attempts %d out of range [0,10]", c.RetryAttempts))
	}
	if c.RetryBackoff < 0 {
		errs = append(errs, errors.New("retry backoff must not be negative"))
	}
	if c.BatchConcurrency < 1 {
		errs = append(errs, errors.New("batch concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}

// Outcome tells how a Result was produced.
type Outcome int

const (
	// OutcomeVerdict means the model replied with a JSON object.
	OutcomeVerdict Outcome = iota
	// OutcomeUnparsed means the model replied but no JSON object could be extracted.
	OutcomeUnparsed
	// OutcomeProviderError means the model call failed.
	OutcomeProviderError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerdict:
		return "verdict"
	case OutcomeUnparsed:
		return "unparsed"
	case OutcomeProviderError:
		return "provider_error"
	}
	return "unknown"
}

// BatchItem is one claim with its evidence.
type BatchItem struct {
	Claim    string         `json:"claim"`
	Evidence []EvidenceItem `json:"evidence"`
}

// ClaimVerifier is what outer surfaces (HTTP, Telegram) depend on.
type ClaimVerifier interface {
	VerifyClaim(ctx context.Context, claim string, evidence []EvidenceItem) Result
	VerifyClaimBatch(ctx context.Context, items []BatchItem) []Result
}

type Verifier struct {
	model Model
	cfg   Config
}

func New(model Model, cfg Config) (*Verifier, error) {
	if model == nil {
		return nil, errors.New("verify: model is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("verify: invalid config: %w", err)
	}
	return &Verifier{model: model, cfg: cfg}, nil
}

func (v *Verifier) Config() Config { return v.cfg }

// VerifyClaim never fails; see Check for how the result was obtained.
func (v *Verifier) VerifyClaim(ctx context.Context, claim string, evidence []EvidenceItem) Result {
	res, _ := v.Check(ctx, claim, evidence)
	return res
}

// Check builds the prompt, calls the model and normalizes its reply.
func (v *Verifier) Check(ctx context.Context, claim string, evidence []EvidenceItem) (Result, Outcome) {
	log := logger.FromContext(ctx).With("model", v.cfg.ModelName)
	raw, err := v.invoke(ctx, BuildPrompt(claim, evidence))
	if err != nil {
		perr := AsProviderError(err)
		log.Warn("model invocation failed", "category", perr.Category, "error", err)
		return Fallback(perr.Explanation()), OutcomeProviderError
	}
	res, ok := normalize(raw)
	if !ok {
		log.Debug("model reply had no JSON object", "bytes", len(raw))
		return res, OutcomeUnparsed
	}
	log.Debug("claim verified", "label", res.Label(), "confidence", res.Confidence())
	return res, OutcomeVerdict
}

// VerifyClaimBatch returns one result per item, in input order.
func (v *Verifier) VerifyClaimBatch(ctx context.Context, items []BatchItem) []Result {
	return runBatch(ctx, items, v.cfg.BatchConcurrency, func(ctx context.Context, it BatchItem) Result {
		return v.VerifyClaim(ctx, it.Claim, it.Evidence)
	})
}

func (v *Verifier) invoke(ctx context.Context, prompt string) (string, error) {
	if v.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.cfg.Timeout)
		defer cancel()
	}
	base := v.cfg.RetryBackoff
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.NewExponential(base)
	backoff = retry.WithCappedDuration(maxRetryBackoff, backoff)
	backoff = retry.WithMaxRetries(uint64(v.cfg.RetryAttempts), backoff) // #nosec G115 -- validated non-negative

	var raw string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := v.model.Invoke(ctx, prompt)
		if err == nil && strings.TrimSpace(out) == "" {
			err = ErrEmptyResponse
		}
		if err != nil {
			perr := AsProviderError(err)
			if perr.Category.Retryable() && ctx.Err() == nil {
				return retry.RetryableError(perr)
			}
			return perr
		}
		raw = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// runBatch applies check to every item with at most limit calls in flight. Items not
// started before ctx is done get a fallback for the context error.
func runBatch(ctx context.Context, items []BatchItem, limit int, check func(context.Context, BatchItem) Result) []Result {
	results := make([]Result, len(items))
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			results[i] = Fallback(AsProviderError(err).Explanation())
			continue
		}
		g.Go(func() error {
			results[i] = check(ctx, it)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
