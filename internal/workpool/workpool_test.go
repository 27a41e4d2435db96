package workpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapKeepsOrder(t *testing.T) {
	t.Parallel()

	inputs := []int{5, 1, 4, 2, 3}
	got, err := Map(context.Background(), 3, inputs, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * n, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{25, 1, 16, 4, 9}, got)
}

func TestMapBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	inputs := make([]int, 20)
	_, err := Map(context.Background(), 2, inputs, func(context.Context, int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestMapRunsEveryTaskAndReturnsFirstError(t *testing.T) {
	t.Parallel()

	errTwo := errors.New("two failed")
	var ran atomic.Int32
	got, err := Map(context.Background(), 4, []int{1, 2, 3, 4}, func(_ context.Context, n int) (string, error) {
		ran.Add(1)
		switch n {
		case 2:
			return "", errTwo
		case 4:
			return "", errors.New("four failed")
		}
		return "ok", nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errTwo)
	assert.Equal(t, int32(4), ran.Load())
	assert.Equal(t, "ok", got[2])
}

func TestMapInvalidSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		_, err := Map(context.Background(), size, []int{1}, func(context.Context, int) (int, error) { return 0, nil })
		assert.ErrorIs(t, err, ErrInvalidSize)
	}
}

func TestMapEmpty(t *testing.T) {
	t.Parallel()

	got, err := Map(context.Background(), 1, nil, func(context.Context, int) (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Empty(t, got)
}
