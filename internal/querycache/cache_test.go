package querycache

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

func TestFetchCachesUntilInvalidated(t *testing.T) {
	c := New(0, nil)
	var loads int32
	load := func(context.Context) ([]string, error) {
		atomic.AddInt32(&loads, 1)
		return []string{"Monday"}, nil
	}
	key := NewKey("weekly-schedules")

	for i := 0; i < 3; i++ {
		v, err := Fetch(context.Background(), c, key, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"Monday"}, v)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))

	assert.Equal(t, 1, c.Invalidate("weekly-schedules"))
	_, err := Fetch(context.Background(), c, key, load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&loads))
}

func TestInvalidateOnlyTouchesEntity(t *testing.T) {
	c := New(0, nil)
	ok := func(context.Context) (int, error) { return 1, nil }
	_, _ = Fetch(context.Background(), c, NewKey("summaries", "month=2025-05"), ok)
	_, _ = Fetch(context.Background(), c, NewKey("summaries", "month=2025-06"), ok)
	_, _ = Fetch(context.Background(), c, NewKey("online-booking"), ok)

	assert.Equal(t, 1, c.Invalidate("online-booking"))
	assert.Equal(t, 2, c.Len())
}

func TestFetchExpires(t *testing.T) {
	c := New(time.Minute, nil)
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	var loads int
	load := func(context.Context) (int, error) { loads++; return loads, nil }

	v, _ := Fetch(context.Background(), c, NewKey("faqs"), load)
	assert.Equal(t, 1, v)
	now = now.Add(2 * time.Minute)
	v, _ = Fetch(context.Background(), c, NewKey("faqs"), load)
	assert.Equal(t, 2, v)
}

func TestFetchErrorsAreNotCached(t *testing.T) {
	c := New(0, nil)
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, NewKey("stocks"), func(context.Context) (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestFetchCollapsesConcurrentLoads(t *testing.T) {
	c := New(0, nil)
	var loads int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return "ok", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, NewKey("orders"), load)
			assert.NoError(t, err)
			assert.Equal(t, "ok", v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))
}

func TestInvalidateDuringLoadDropsResult(t *testing.T) {
	c := New(0, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Fetch(context.Background(), c, NewKey("blogs"), func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started
	c.Invalidate("blogs")
	close(release)
	<-done
	assert.Equal(t, 0, c.Len())
}

func TestClear(t *testing.T) {
	c := New(0, nil)
	_, _ = Fetch(context.Background(), c, NewKey("gallery"), func(context.Context) (int, error) { return 1, nil })
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "summaries?month=2025-05", NewKey("summaries", "month=2025-05").String())
	assert.Equal(t, "faqs", NewKey("faqs").String())
}
