// Package oracle implements the Oracle Gateway: redundant requests to an
// OpenAI-compatible model, raced so the first schema-valid response wins.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

// ErrGatewayFailure is matched by every error returned when all attempts fail.
var ErrGatewayFailure = errors.New("oracle gateway failure")

// ErrInvalidResponse marks an attempt whose response did not satisfy the schema.
var ErrInvalidResponse = errors.New("invalid oracle response")

// GatewayError aggregates the failures of every attempt in a race.
type GatewayError struct {
	Op       string
	Attempts int
	Errs     []error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("all %d %s attempts failed: %v", e.Attempts, e.Op, errors.Join(e.Errs...))
}

// Unwrap exposes ErrGatewayFailure and each attempt error to errors.Is/As.
func (e *GatewayError) Unwrap() []error {
	return append([]error{ErrGatewayFailure}, e.Errs...)
}

// Race launches n concurrent attempts and returns the first result that both
// succeeds and passes validate (nil validate accepts anything). The remaining
// attempts are cancelled. A *GatewayError is returned only when all n fail or
// ctx ends first.
func Race[T any](ctx context.Context, op string, n int, attempt func(ctx context.Context, i int) (T, error), validate func(T) error) (T, error) {
	var zero T
	if n < 1 {
		n = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		index int
		value T
		err   error
	}
	// Buffered so losing attempts never block after the race is decided.
	results := make(chan result, n)

	for i := 0; i < n; i++ {
		go func(i int) {
			v, err := attempt(ctx, i)
			if err == nil && validate != nil {
				if verr := validate(v); verr != nil {
					err = fmt.Errorf("%w: %w", ErrInvalidResponse, verr)
				}
			}
			results <- result{index: i, value: v, err: err}
		}(i)
	}

	errs := make([]error, 0, n)
	for received := 0; received < n; received++ {
		select {
		case r := <-results:
			if r.err == nil {
				return r.value, nil
			}
			errs = append(errs, fmt.Errorf("attempt %d: %w", r.index+1, r.err))
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			return zero, &GatewayError{Op: op, Attempts: n, Errs: errs}
		}
	}
	return zero, &GatewayError{Op: op, Attempts: n, Errs: errs}
}
