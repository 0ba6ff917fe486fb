package seen

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func countFirsts(t *testing.T, m Marker, key string, callers int) int32 {
	t.Helper()
	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := m.MarkOnce(context.Background(), key)
			if err == nil && first {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()
	return firsts.Load()
}

func TestLRUMarkerOnce(t *testing.T) {
	m := NewLRU(16, time.Hour)
	require.Equal(t, int32(1), countFirsts(t, m, "share-1:session-a", 20))

	first, err := m.MarkOnce(context.Background(), "share-1:session-b")
	require.NoError(t, err)
	require.True(t, first)
}

func TestRedisMarkerOnce(t *testing.T) {
	s := miniredis.RunT(t)
	m, err := NewRedis("redis://"+s.Addr(), "test:", time.Hour)
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, int32(1), countFirsts(t, m, "share-1:session-a", 20))
	require.True(t, s.Exists("test:seen:share-1:session-a"))
}

func TestRedisMarkerExpires(t *testing.T) {
	s := miniredis.RunT(t)
	m, err := NewRedis("redis://"+s.Addr(), "", time.Minute)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	first, err := m.MarkOnce(ctx, "k")
	require.NoError(t, err)
	require.True(t, first)

	first, err = m.MarkOnce(ctx, "k")
	require.NoError(t, err)
	require.False(t, first)

	s.FastForward(2 * time.Minute)
	first, err = m.MarkOnce(ctx, "k")
	require.NoError(t, err)
	require.True(t, first)
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis("://bad", "", time.Minute)
	require.Error(t, err)
}

func TestMarkerForget(t *testing.T) {
	s := miniredis.RunT(t)
	rm, err := NewRedis("redis://"+s.Addr(), "", time.Hour)
	require.NoError(t, err)
	defer rm.Close()

	ctx := context.Background()
	for _, m := range []Marker{NewLRU(4, time.Hour), rm} {
		first, err := m.MarkOnce(ctx, "k")
		require.NoError(t, err)
		require.True(t, first)

		require.NoError(t, m.Forget(ctx, "k"))
		require.NoError(t, m.Forget(ctx, "absent"))

		first, err = m.MarkOnce(ctx, "k")
		require.NoError(t, err)
		require.True(t, first)
	}
}
