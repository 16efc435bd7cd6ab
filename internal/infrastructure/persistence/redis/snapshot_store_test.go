package redis

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-hub/class-routine-hub/pkg/retry"
)

func TestClassifySeparatesTransportFailures(t *testing.T) {
	assert.NoError(t, classify(nil))

	// Misses and local argument failures must never be retried.
	for _, err := range []error{
		ErrCacheMiss,
		ErrCacheKeyEmpty,
		ErrCacheNilValue,
		ErrCacheInvalidTTL,
		fmt.Errorf("%w: unexpected end of JSON input", ErrCacheSerialization),
	} {
		classified := classify(err)
		assert.True(t, retry.IsPermanent(classified), "expected permanent: %v", err)
		assert.ErrorIs(t, classified, err)
	}

	classified := classify(errors.New("connection reset by peer"))
	assert.True(t, retry.IsRetryable(classified))
}
