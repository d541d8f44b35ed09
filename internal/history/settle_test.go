package history

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettle_CollectsSuccessesAndFailures(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task[int]{
		{Name: "a", Run: func(context.Context) (int, error) { return 1, nil }},
		{Name: "b", Run: func(context.Context) (int, error) { return 0, boom }},
		{Name: "c", Run: func(context.Context) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 3, nil
		}},
		{Name: "d", Run: func(context.Context) (int, error) { panic("kaboom") }},
	}

	outcomes, failures := Settle(context.Background(), tasks)

	var names []string
	for _, o := range outcomes {
		names = append(names, o.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a", "c"}, names)

	require.Len(t, failures, 2)
	byName := map[string]error{}
	for _, f := range failures {
		byName[f.Name] = f.Err
	}
	assert.ErrorIs(t, byName["b"], boom)
	assert.Contains(t, byName["d"].Error(), "panicked")
}

func TestSettle_FailureDoesNotCancelOthers(t *testing.T) {
	tasks := []Task[string]{
		{Name: "fast-fail", Run: func(context.Context) (string, error) { return "", errors.New("down") }},
		{Name: "slow", Run: func(ctx context.Context) (string, error) {
			select {
			case <-time.After(20 * time.Millisecond):
				return "ok", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}},
	}

	outcomes, failures := Settle(context.Background(), tasks)

	require.Len(t, outcomes, 1)
	assert.Equal(t, "ok", outcomes[0].Value)
	assert.Len(t, failures, 1)
}

func TestSettle_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	outcomes, failures := Settle(ctx, []Task[int]{
		{Name: "x", Run: func(context.Context) (int, error) { called = true; return 1, nil }},
	})

	assert.False(t, called)
	assert.Empty(t, outcomes)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, context.Canceled)
}

func TestSettle_NoTasks(t *testing.T) {
	outcomes, failures := Settle[int](context.Background(), nil)
	assert.Empty(t, outcomes)
	assert.Empty(t, failures)
}
