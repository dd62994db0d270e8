// Copyright 2021 The reqchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gogama/reqchain/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWaiter(t *testing.T) {
	max := []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1 * time.Second,
		1 * time.Second,
	}
	for i := range max {
		wait := DefaultWaiter.Wait(&request.Execution{Attempt: i})
		assert.GreaterOrEqual(t, wait, time.Duration(0))
		assert.LessOrEqual(t, wait, max[i])
	}
}

func TestNewFixedWaiter(t *testing.T) {
	w := NewFixedWaiter(3 * time.Second)
	assert.Equal(t, 3*time.Second, w.Wait(&request.Execution{}))
	assert.Equal(t, 3*time.Second, w.Wait(&request.Execution{Attempt: 10}))
}

func TestNewExpWaiter(t *testing.T) {
	base, max := 1*time.Millisecond, 1*time.Hour
	t.Run("invalid args", func(t *testing.T) {
		assert.Panics(t, func() { NewExpWaiter(-1, max, nil) }, "negative base")
		assert.Panics(t, func() { NewExpWaiter(0, max, nil) }, "zero base")
		assert.Panics(t, func() { NewExpWaiter(2, 1, nil) }, "max less than base")
		assert.Panics(t, func() { NewExpWaiter(base, max, float64(1)) }, "float64 jitter")
		var nilRand *rand.Rand
		assert.Panics(t, func() { NewExpWaiter(base, max, nilRand) }, "nil *rand.Rand")
	})
	t.Run("no jitter", func(t *testing.T) {
		w := NewExpWaiter(base, max, nil)
		require.IsType(t, &jitterExpWaiter{}, w)
		assert.Nil(t, w.(*jitterExpWaiter).rand)
		for i := 0; i < 10; i++ {
			assert.Equal(t, time.Duration(1<<i)*time.Millisecond, w.Wait(&request.Execution{Attempt: i}))
		}
		assert.Equal(t, max, w.Wait(&request.Execution{Attempt: 25}))
		assert.Equal(t, max, w.Wait(&request.Execution{Attempt: 62}))
		assert.Equal(t, max, w.Wait(&request.Execution{Attempt: 1000}))
		assert.Equal(t, max, w.Wait(&request.Execution{Attempt: math.MaxInt32}))
	})
	t.Run("with jitter", func(t *testing.T) {
		jitters := []struct {
			name  string
			value interface{}
		}{
			{"zero time.Time", time.Time{}},
			{"time.Now()", time.Now()},
			{"int", 1},
			{"int64", int64(1)},
			{"rand.Source", rand.NewSource(0)},
			{"*rand.Rand", rand.New(rand.NewSource(0))},
		}
		for _, jitter := range jitters {
			t.Run(jitter.name, func(t *testing.T) {
				w := NewExpWaiter(base, max, jitter.value)
				for j := 0; j < 100; j++ {
					d := w.Wait(&request.Execution{Attempt: j})
					assert.GreaterOrEqual(t, d, time.Duration(0))
					assert.LessOrEqual(t, d, max)
				}
			})
		}
	})
	t.Run("concurrent use", func(t *testing.T) {
		w := NewExpWaiter(base, max, 0)
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 22; j++ {
					d := w.Wait(&request.Execution{Attempt: j})
					assert.GreaterOrEqual(t, d, time.Duration(0))
					assert.LessOrEqual(t, d, time.Duration(1<<j)*time.Millisecond, fmt.Sprintf("attempt %d", j))
				}
			}()
		}
		wg.Wait()
	})
}

func TestNewRetryAfterWaiter(t *testing.T) {
	now := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	fallback := NewFixedWaiter(time.Millisecond)
	w := NewRetryAfterWaiter(fallback, time.Minute).(*retryAfterWaiter)
	w.now = func() time.Time { return now }

	testCases := []struct {
		name       string
		retryAfter string
		expected   time.Duration
	}{
		{"absent", "", time.Millisecond},
		{"seconds", "30", 30 * time.Second},
		{"zero seconds", "0", 0},
		{"too long", "61", time.Millisecond},
		{"negative", "-1", time.Millisecond},
		{"garbage", "soon", time.Millisecond},
		{"http date", now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{"past date", now.Add(-time.Hour).Format(http.TimeFormat), 0},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			e := &request.Execution{Response: &request.Response{Header: request.Header{}}}
			if testCase.retryAfter != "" {
				e.Response.Header.Set("retry-after", testCase.retryAfter)
			}
			assert.Equal(t, testCase.expected, w.Wait(e))
		})
	}

	t.Run("no response", func(t *testing.T) {
		assert.Equal(t, time.Millisecond, w.Wait(&request.Execution{}))
	})
	t.Run("nil fallback", func(t *testing.T) {
		assert.PanicsWithValue(t, "reqchain/retry: nil fallback waiter", func() { NewRetryAfterWaiter(nil, time.Second) })
	})
}
