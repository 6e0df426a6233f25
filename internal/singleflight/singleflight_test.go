package singleflight

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGroup_Do(t *testing.T) {
	t.Run("different keys", func(t *testing.T) {
		var g Group[string, int]
		var callCount int32

		const numGoroutines = 10
		var wg sync.WaitGroup
		results := make([]int, numGoroutines)
		errs := make([]error, numGoroutines)

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(i int) {
				defer wg.Done()
				res, err := g.Do(context.Background(), "key"+strconv.Itoa(i), func() (int, error) {
					atomic.AddInt32(&callCount, 1)
					time.Sleep(50 * time.Millisecond)
					return (i + 1) * 10, nil
				})
				results[i] = res
				errs[i] = err
			}(i)
		}
		wg.Wait()

		require.Equal(t, int32(numGoroutines), callCount)
		for i, err := range errs {
			require.NoError(t, err, "goroutine %d", i)
			require.Equal(t, (i+1)*10, results[i], "goroutine %d", i)
		}
	})

	t.Run("same key", func(t *testing.T) {
		var g Group[string, int]
		var callCount int32

		fn := func() (int, error) {
			atomic.AddInt32(&callCount, 1)
			time.Sleep(100 * time.Millisecond)
			return 42, nil
		}

		const numGoroutines = 10
		var wg sync.WaitGroup
		results := make([]int, numGoroutines)
		errs := make([]error, numGoroutines)

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = g.Do(context.Background(), "key", fn)
			}(i)
		}
		wg.Wait()

		require.Equal(t, int32(1), callCount, "expected fn to be called only once")
		for i, err := range errs {
			require.NoError(t, err, "goroutine %d", i)
			require.Equal(t, 42, results[i], "goroutine %d", i)
		}
		require.Empty(t, g.m, "in-flight marker must be dropped")
	})

	t.Run("error is shared", func(t *testing.T) {
		var g Group[string, int]
		var callCount int32
		someErr := errors.New("some error")

		fn := func() (int, error) {
			atomic.AddInt32(&callCount, 1)
			time.Sleep(100 * time.Millisecond)
			return 0, someErr
		}

		const numGoroutines = 10
		var wg sync.WaitGroup
		errs := make([]error, numGoroutines)

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(i int) {
				defer wg.Done()
				_, errs[i] = g.Do(context.Background(), "key", fn)
			}(i)
		}
		wg.Wait()

		require.Equal(t, int32(1), callCount)
		for i, err := range errs {
			require.ErrorIs(t, err, someErr, "goroutine %d", i)
		}
	})

	t.Run("follower cancellation", func(t *testing.T) {
		var g Group[string, int]
		release := make(chan struct{})
		started := make(chan struct{})

		leaderRes := make(chan int, 1)
		go func() {
			v, _ := g.Do(context.Background(), "key", func() (int, error) {
				close(started)
				<-release
				return 1, nil
			})
			leaderRes <- v
		}()
		<-started

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.Do(ctx, "key", func() (int, error) { return 2, nil })
		require.ErrorIs(t, err, context.Canceled)

		close(release)
		require.Equal(t, 1, <-leaderRes, "leader is unaffected by follower cancellation")
	})

	t.Run("panic", func(t *testing.T) {
		var g Group[string, int]
		var callCount int32
		panicValue := "boom"

		fn := func() (int, error) {
			atomic.AddInt32(&callCount, 1)
			time.Sleep(100 * time.Millisecond)
			panic(panicValue)
		}

		const numGoroutines = 10
		var wg sync.WaitGroup

		type result struct {
			panicked bool
			err      error
		}
		results := make([]result, numGoroutines)

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(i int) {
				defer wg.Done()
				var res result
				func() {
					defer func() {
						if r := recover(); r != nil {
							res.panicked = true
						}
					}()
					_, res.err = g.Do(context.Background(), "key", fn)
				}()
				results[i] = res
			}(i)
		}
		wg.Wait()

		require.Equal(t, int32(1), callCount)

		var panickedCount int
		for i, res := range results {
			if res.panicked {
				panickedCount++
				continue
			}
			var pErr *PanicError
			require.ErrorAs(t, res.err, &pErr, "goroutine %d", i)
			require.Equal(t, panicValue, pErr.Value, "goroutine %d", i)
		}
		require.Equal(t, 1, panickedCount, "expected exactly one goroutine to re-panic")
		require.Empty(t, g.m)
	})

	t.Run("panic with error value unwraps", func(t *testing.T) {
		cause := errors.New("cause")
		pErr := &PanicError{Value: cause}
		require.ErrorIs(t, pErr, cause)
		require.Nil(t, (&PanicError{Value: "text"}).Unwrap())
	})

	t.Run("runtime.Goexit", func(t *testing.T) {
		var g Group[string, int]
		var callCount int32

		fn := func() (int, error) {
			atomic.AddInt32(&callCount, 1)
			time.Sleep(100 * time.Millisecond)
			runtime.Goexit()
			return 42, nil
		}

		type result struct {
			err      error
			finished bool
		}

		const numGoroutines = 10
		var wg sync.WaitGroup
		results := make([]result, numGoroutines)

		wg.Add(numGoroutines)
		for i := 0; i < numGoroutines; i++ {
			go func(i int) {
				defer wg.Done()
				_, err := g.Do(context.Background(), "key", fn)
				results[i] = result{err: err, finished: true}
			}(i)
		}
		wg.Wait()

		require.Equal(t, int32(1), callCount)
		finishedCount := 0
		for i, res := range results {
			if !res.finished {
				continue
			}
			finishedCount++
			require.ErrorIs(t, res.err, ErrGoexit, "goroutine %d", i)
		}
		require.Equal(t, numGoroutines-1, finishedCount, "expected all but one goroutine to return ErrGoexit")
	})
}
