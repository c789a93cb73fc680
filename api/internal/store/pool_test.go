package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeDSNSummary(t *testing.T) {
	t.Run("Should omit the password", func(t *testing.T) {
		out := SafeDSNSummary("postgres://verifier:s3cret@db:5432/verdicts?sslmode=disable")

		assert.Equal(t, "host=db port=5432 db=verdicts user=verifier", out)
		assert.NotContains(t, out, "s3cret")
	})
	t.Run("Should handle a host without port", func(t *testing.T) {
		assert.Equal(t, "host=db db=verdicts user=u", SafeDSNSummary("postgres://u@db/verdicts"))
	})
	t.Run("Should not echo an unparsable DSN", func(t *testing.T) {
		assert.Equal(t, "dsn: parse error", SafeDSNSummary("host=db password=secret"))
	})
}
