// Package pipeline holds the frame types and the stage abstraction shared by
// the decode, overlay and encode steps.
package pipeline

import (
	"context"
)

// Stage turns one input into one output. Stages are called once per message
// and must not retain the input after returning.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a plain function to Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// Passthrough returns a stage that hands its input back unchanged.
func Passthrough[T any]() Stage[T, T] {
	return StageFunc[T, T](func(_ context.Context, input T) (T, error) {
		return input, nil
	})
}

// Chain runs stages in order, feeding each output to the next stage. Nil
// stages are skipped; an empty chain is a passthrough.
func Chain[T any](stages ...Stage[T, T]) Stage[T, T] {
	var active []Stage[T, T]
	for _, s := range stages {
		if s != nil {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return Passthrough[T]()
	}
	if len(active) == 1 {
		return active[0]
	}
	return StageFunc[T, T](func(ctx context.Context, input T) (T, error) {
		var err error
		for _, s := range active {
			if input, err = s.Execute(ctx, input); err != nil {
				return input, err
			}
		}
		return input, nil
	})
}
