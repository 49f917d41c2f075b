package memo

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type key struct {
	tool, version, arch string
}

func TestDoRunsOncePerKey(t *testing.T) {
	var c Cache[key, string]
	var calls atomic.Int32
	release := make(chan struct{})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Do(key{"llvm", "18.1.8", "amd64"}, func() (string, error) {
				calls.Add(1)
				<-release
				return "/tools/llvm/18.1.8/bin", nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "/tools/llvm/18.1.8/bin", r)
	}
	assert.True(t, c.Done(key{"llvm", "18.1.8", "amd64"}))
	assert.Equal(t, 1, c.Len())
}

func TestDoDistinctKeys(t *testing.T) {
	var c Cache[key, int]
	calls := 0
	fn := func() (int, error) {
		calls++
		return calls, nil
	}

	a, _ := c.Do(key{"llvm", "18", "amd64"}, fn)
	b, _ := c.Do(key{"llvm", "18", "arm64"}, fn)
	again, _ := c.Do(key{"llvm", "18", "amd64"}, fn)

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, again)
	assert.Equal(t, 2, calls)
}

func TestDoMemoizesFailure(t *testing.T) {
	var c Cache[string, string]
	boom := errors.New("exhausted")
	calls := 0
	fn := func() (string, error) {
		calls++
		return "", boom
	}

	_, err := c.Do("cmake", fn)
	assert.ErrorIs(t, err, boom)
	_, err = c.Do("cmake", fn)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDoPanicReachesWaiters(t *testing.T) {
	var c Cache[string, string]
	started := make(chan struct{})

	waiterErr := make(chan error, 1)
	go func() {
		<-started
		_, err := c.Do("ninja", func() (string, error) {
			t.Error("second producer must not run")
			return "", nil
		})
		waiterErr <- err
	}()

	require.PanicsWithValue(t, "extract crashed", func() {
		_, _ = c.Do("ninja", func() (string, error) {
			close(started)
			panic("extract crashed")
		})
	}, "producer re-panics")

	err := <-waiterErr
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "extract crashed", pe.Value)
}
