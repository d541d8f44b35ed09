package history

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is one independent unit of work for Settle.
type Task[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Outcome is a task that succeeded.
type Outcome[T any] struct {
	Name  string
	Value T
}

// Failure is a task that returned an error or panicked.
type Failure struct {
	Name string
	Err  error
}

// Settle runs all tasks concurrently and waits for every one of them. A
// failing task never cancels the others. Successes and failures are
// returned separately, each in completion order.
func Settle[T any](ctx context.Context, tasks []Task[T]) ([]Outcome[T], []Failure) {
	var (
		mu       sync.Mutex
		outcomes []Outcome[T]
		failures []Failure
		g        errgroup.Group
	)

	for _, task := range tasks {
		g.Go(func() error {
			value, err := runTask(ctx, task)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, Failure{Name: task.Name, Err: err})
				return nil
			}
			outcomes = append(outcomes, Outcome[T]{Name: task.Name, Value: value})
			return nil
		})
	}

	_ = g.Wait()
	return outcomes, failures
}

func runTask[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", task.Name, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return value, err
	}
	return task.Run(ctx)
}
