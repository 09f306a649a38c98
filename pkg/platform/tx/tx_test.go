package tx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodian/pkg/domain-errors"
)

func TestShardedRunner(t *testing.T) {
	t.Run("propagates fn error", func(t *testing.T) {
		r := NewShardedRunner(time.Second)
		boom := errors.New("boom")
		err := r.RunInTx(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nested calls do not deadlock", func(t *testing.T) {
		r := NewShardedRunner(time.Second)
		ctx := WithShardKey(context.Background(), "subject-1")
		calls := 0
		err := r.RunInTx(ctx, func(ctx context.Context) error {
			calls++
			return r.RunInTx(ctx, func(context.Context) error {
				calls++
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("serializes work on the same key", func(t *testing.T) {
		r := NewShardedRunner(time.Second)
		ctx := WithShardKey(context.Background(), "subject-1")
		counter := 0
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = r.RunInTx(ctx, func(context.Context) error {
					v := counter
					time.Sleep(time.Microsecond)
					counter = v + 1
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
	})

	t.Run("keeps writes made before an error", func(t *testing.T) {
		r := NewShardedRunner(time.Second)
		written := false
		err := r.RunInTx(context.Background(), func(context.Context) error {
			written = true
			return errors.New("late failure")
		})
		require.Error(t, err)
		assert.True(t, written, "callers validate before writing; nothing is rolled back")
	})

	t.Run("rejects cancelled context", func(t *testing.T) {
		r := NewShardedRunner(time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := r.RunInTx(ctx, func(context.Context) error { return nil })
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func TestFromWithoutTx(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
	assert.Equal(t, context.Background(), WithTx(context.Background(), nil))
}
