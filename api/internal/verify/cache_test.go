package verify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Find(ctx context.Context, key string, maxAge time.Duration) (Result, error) {
	args := m.Called(ctx, key, maxAge)
	return args.Get(0).(Result), args.Error(1)
}

func (m *mockCache) Upsert(ctx context.Context, key, model string, res Result) error {
	args := m.Called(ctx, key, model, res)
	return args.Error(0)
}

func TestCacheKey(t *testing.T) {
	ev := []EvidenceItem{{Source: "Wikipedia", Content: "Paris"}}

	t.Run("Should be stable and ignore surrounding whitespace", func(t *testing.T) {
		a := CacheKey("m", "claim", ev)
		b := CacheKey("m", "  claim ", []EvidenceItem{{Source: " Wikipedia", Content: "Paris\n"}})
		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
	})
	t.Run("Should differ by model, claim and evidence", func(t *testing.T) {
		base := CacheKey("m", "claim", ev)
		assert.NotEqual(t, base, CacheKey("other", "claim", ev))
		assert.NotEqual(t, base, CacheKey("m", "claim 2", ev))
		assert.NotEqual(t, base, CacheKey("m", "claim", nil))
	})
}

func TestCachedVerifier_VerifyClaim(t *testing.T) {
	const ttl = time.Hour
	verdict := `{"label":"SUPPORTED","confidence":0.9,"explanation":"ok"}`
	key := CacheKey(DefaultModelName, "claim", nil)

	t.Run("Should serve a hit without calling the model", func(t *testing.T) {
		m := new(mockModel)
		c := new(mockCache)
		cached := CoerceResult(LabelRefuted, 0.6, "cached")
		c.On("Find", mock.Anything, key, ttl).Return(cached, nil).Once()
		v, err := New(m, testConfig())
		require.NoError(t, err)

		res := NewCached(v, c, ttl).VerifyClaim(testContext(), "claim", nil)

		assert.Equal(t, cached, res)
		m.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
		c.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
	t.Run("Should store a fresh verdict on a miss", func(t *testing.T) {
		m := new(mockModel)
		m.On("Invoke", mock.Anything, mock.Anything).Return(verdict, nil).Once()
		c := new(mockCache)
		c.On("Find", mock.Anything, key, ttl).Return(Result{}, ErrCacheMiss).Once()
		c.On("Upsert", mock.Anything, key, DefaultModelName, mock.AnythingOfType("verify.Result")).Return(nil).Once()
		v, err := New(m, testConfig())
		require.NoError(t, err)

		res := NewCached(v, c, ttl).VerifyClaim(testContext(), "claim", nil)

		assert.Equal(t, LabelSupported, res.Label())
		c.AssertExpectations(t)
		m.AssertExpectations(t)
	})
	t.Run("Should keep working when the cache fails", func(t *testing.T) {
		m := new(mockModel)
		m.On("Invoke", mock.Anything, mock.Anything).Return(verdict, nil).Once()
		c := new(mockCache)
		c.On("Find", mock.Anything, key, ttl).Return(Result{}, errors.New("connection refused")).Once()
		c.On("Upsert", mock.Anything, key, DefaultModelName, mock.Anything).Return(errors.New("connection refused")).Once()
		v, err := New(m, testConfig())
		require.NoError(t, err)

		res := NewCached(v, c, ttl).VerifyClaim(testContext(), "claim", nil)

		assert.Equal(t, LabelSupported, res.Label())
		assert.Equal(t, 0.9, res.Confidence())
		c.AssertExpectations(t)
	})
	t.Run("Should not store fallbacks", func(t *testing.T) {
		m := new(mockModel)
		m.On("Invoke", mock.Anything, mock.Anything).Return("", &googleapi.Error{Code: http.StatusForbidden})
		c := new(mockCache)
		c.On("Find", mock.Anything, key, ttl).Return(Result{}, ErrCacheMiss).Once()
		v, err := New(m, testConfig())
		require.NoError(t, err)

		res := NewCached(v, c, ttl).VerifyClaim(testContext(), "claim", nil)

		assert.Equal(t, FallbackConfidence, res.Confidence())
		c.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCachedVerifier_VerifyClaimBatch(t *testing.T) {
	t.Run("Should answer each item through the cache in order", func(t *testing.T) {
		c := new(mockCache)
		c.On("Find", mock.Anything, mock.Anything, time.Minute).Return(Result{}, ErrCacheMiss)
		c.On("Upsert", mock.Anything, mock.Anything, DefaultModelName, mock.Anything).Return(nil)
		v, err := New(echoModel(), testConfig())
		require.NoError(t, err)

		res := NewCached(v, c, time.Minute).VerifyClaimBatch(testContext(), []BatchItem{{Claim: "x"}, {Claim: "y"}})

		require.Len(t, res, 2)
		assert.Equal(t, "x", res[0].Explanation())
		assert.Equal(t, "y", res[1].Explanation())
		c.AssertNumberOfCalls(t, "Find", 2)
		c.AssertNumberOfCalls(t, "Upsert", 2)
	})
}
