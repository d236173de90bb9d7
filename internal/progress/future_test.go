package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentAddProgressConverges(t *testing.T) {
	f := New[*string]()

	const n = 1000
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			f.AddProgress(1.0 / n)
		}()
	}
	wg.Wait()

	assert.InDelta(t, 1.0, f.Progress(), 1e-6)
}

func TestAddProgressClamps(t *testing.T) {
	f := New[*string]()

	f.AddProgress(0.7)
	f.AddProgress(0.7)
	assert.Equal(t, 1.0, f.Progress())

	f.SetProgress(-0.5)
	assert.Equal(t, 0.0, f.Progress())

	f.SetProgress(2.0)
	assert.Equal(t, 1.0, f.Progress())
}

func TestCompleteFirstWriterWins(t *testing.T) {
	f := New[*int]()

	first := 1
	second := 2
	assert.True(t, f.Complete(&first))
	assert.False(t, f.Complete(&second))

	got, resolved := f.Value()
	require.True(t, resolved)
	assert.Equal(t, &first, got)
	assert.Equal(t, 1.0, f.Progress())
}

func TestCompleteWithNilIsValidResolution(t *testing.T) {
	f := New[*int]()
	assert.True(t, f.Complete(nil))

	got, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListenerFiresOnceMoreAtCompletion(t *testing.T) {
	f := New[*int]()

	var mu sync.Mutex
	var finals int
	f.Listen(func(oldValue, newValue float64) {
		mu.Lock()
		defer mu.Unlock()
		if newValue == 1.0 {
			finals++
		}
	})

	f.AddProgress(0.25)
	v := 7
	f.Complete(&v)
	f.Complete(&v)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, finals)
}

func TestListenAfterCompletionFiresImmediately(t *testing.T) {
	f := Completed(42)

	fired := false
	f.Listen(func(oldValue, newValue float64) {
		fired = true
		assert.Equal(t, 1.0, newValue)
	})
	assert.True(t, fired)
}

func TestGetBlocksUntilComplete(t *testing.T) {
	f := New[*int]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		v := 5
		f.Complete(&v)
	}()

	got, err := f.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, *got)
}

func TestGetHonoursContext(t *testing.T) {
	f := New[*int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
