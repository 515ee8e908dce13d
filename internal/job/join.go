package job

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Join2 runs a and b concurrently and waits until both have succeeded.
//
// The first failure cancels the other branch's context and is returned
// immediately, without waiting for the other branch to notice. Cancelling
// ctx returns ctx.Err(). The results are only meaningful when err is nil.
func Join2[A, B any](ctx context.Context, a func(context.Context) (A, error), b func(context.Context) (B, error)) (A, B, error) {
	var (
		resA A
		resB B
	)

	g, gctx := errgroup.WithContext(ctx)
	failed := make(chan error, 2)

	g.Go(func() error {
		r, err := a(gctx)
		if err != nil {
			failed <- err
			return err
		}
		resA = r
		return nil
	})
	g.Go(func() error {
		r, err := b(gctx)
		if err != nil {
			failed <- err
			return err
		}
		resB = r
		return nil
	})

	settled := make(chan struct{})
	go func() {
		g.Wait()
		close(settled)
	}()

	var zeroA A
	var zeroB B

	select {
	case err := <-failed:
		return zeroA, zeroB, err
	case <-settled:
		// Both branches returned; one of them may still have failed
		select {
		case err := <-failed:
			return zeroA, zeroB, err
		default:
			return resA, resB, nil
		}
	case <-ctx.Done():
		return zeroA, zeroB, ctx.Err()
	}
}
