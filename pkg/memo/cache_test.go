package memo_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dockyard-vm/dockyard/pkg/memo"
)

func TestDoCachesFirstResult(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	cache := memo.NewCache()
	calls := 0

	compute := func() (int, error) {
		calls++

		return calls, nil
	}

	first, err := memo.Do(cache, "query", compute)
	assert.NoError(err)

	second, err := memo.Do(cache, "query", compute)
	assert.NoError(err)

	assert.Equal(1, calls)
	assert.Equal(first, second)
}

func TestResetForcesRecompute(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	cache := memo.NewCache()
	calls := 0

	compute := func() (int, error) {
		calls++

		return calls, nil
	}

	_, err := memo.Do(cache, "query", compute)
	assert.NoError(err)

	cache.Reset()

	_, err = memo.Do(cache, "query", compute)
	assert.NoError(err)

	assert.Equal(2, calls)
}

func TestForgetDropsSingleEntry(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	cache := memo.NewCache()
	listingCalls := 0
	ipCalls := 0

	_, err := memo.Do(cache, "listing", func() (string, error) {
		listingCalls++

		return "a b", nil
	})
	assert.NoError(err)

	_, err = memo.Do(cache, "ip", func() (string, error) {
		ipCalls++

		return "192.168.99.100", nil
	})
	assert.NoError(err)

	cache.Forget("listing")

	_, err = memo.Do(cache, "listing", func() (string, error) {
		listingCalls++

		return "b", nil
	})
	assert.NoError(err)

	_, err = memo.Do(cache, "ip", func() (string, error) {
		ipCalls++

		return "192.168.99.100", nil
	})
	assert.NoError(err)

	assert.Equal(2, listingCalls)
	assert.Equal(1, ipCalls)
}

func TestErrorsAreNotCached(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	cache := memo.NewCache()
	calls := 0

	compute := func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("probe failed")
		}

		return "value", nil
	}

	_, err := memo.Do(cache, "query", compute)
	assert.Error(err)

	got, err := memo.Do(cache, "query", compute)
	assert.NoError(err)
	assert.Equal("value", got)
	assert.Equal(2, calls)
}
