package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetValidToken_CachesUntilExpiry(t *testing.T) {
	var calls int32
	m := NewManager(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "tok-1", nil
	}, 55*time.Minute)

	ctx := context.Background()

	tok, err := m.GetValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	tok, err = m.GetValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetValidToken_RefreshesAfterExpiry(t *testing.T) {
	var calls int32
	m := NewManager(func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return "tok-1", nil
		}
		return "tok-2", nil
	}, 55*time.Minute)

	current := time.Now()
	m.now = func() time.Time { return current }

	ctx := context.Background()

	tok, err := m.GetValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	current = current.Add(56 * time.Minute)

	tok, err = m.GetValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetValidToken_SingleFlight(t *testing.T) {
	const callers = 20

	var calls int32
	release := make(chan struct{})
	m := NewManager(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}, time.Hour)

	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.GetValidToken(context.Background())
		}(i)
	}

	// Let the goroutines pile up on the in-flight refresh before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
}

func TestGetValidToken_FailureLeavesCacheEmpty(t *testing.T) {
	var calls int32
	m := NewManager(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("provider down")
	}, time.Hour)

	ctx := context.Background()

	tok, err := m.GetValidToken(ctx)
	assert.Error(t, err)
	assert.Empty(t, tok)

	// A second call must try again rather than serve a cached failure.
	_, err = m.GetValidToken(ctx)
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClearCache_ForcesRefresh(t *testing.T) {
	var calls int32
	m := NewManager(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "tok", nil
	}, time.Hour)

	ctx := context.Background()
	_, err := m.GetValidToken(ctx)
	require.NoError(t, err)

	m.ClearCache()

	_, err = m.GetValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClearCache_DuringRefreshDoesNotCacheResult(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	m := NewManager(func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "stale", nil
	}, time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		tok, err := m.GetValidToken(context.Background())
		// The waiter still receives the refresh result.
		assert.NoError(t, err)
		assert.Equal(t, "stale", tok)
	}()

	time.Sleep(50 * time.Millisecond)
	m.ClearCache()
	close(release)
	<-done

	// The cleared cache must not have been repopulated by the old refresh.
	_, err := m.GetValidToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetValidToken_ContextCancelledWhileJoining(t *testing.T) {
	release := make(chan struct{})
	m := NewManager(func(ctx context.Context) (string, error) {
		<-release
		return "tok", nil
	}, time.Hour)

	go func() {
		_, _ = m.GetValidToken(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.GetValidToken(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
}
