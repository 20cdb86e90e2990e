package common

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// AsyncMap runs mapFunc for every element of payload concurrently.
// Results keep the order of payload regardless of completion order.
// The first error cancels ctx passed to the remaining calls and is returned,
// in which case no results are returned.
func AsyncMap[T, P any](
	ctx context.Context,
	payload []T,
	mapFunc func(ctx context.Context, index int, value T) (P, error),
) ([]P, error) {
	res := make([]P, len(payload))

	eg, egctx := errgroup.WithContext(ctx)

	for i, value := range payload {
		i, value := i, value
		eg.Go(func() error {
			mapRes, err := mapFunc(egctx, i, value)
			if err != nil {
				return err
			}
			// every goroutine owns its own slot
			res[i] = mapRes
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}
