package limiter

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"assistant/internal/domain"
)

// fakeClock lets tests step across window boundaries deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	// Aligned well inside a minute window.
	return &fakeClock{t: time.UnixMilli(1_700_000_010_000)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func checkN(t *testing.T, check func(string) (domain.RateDecision, error), key string, n int) domain.RateDecision {
	t.Helper()
	var d domain.RateDecision
	var err error
	for i := 0; i < n; i++ {
		d, err = check(key)
		if err != nil {
			t.Fatalf("check %d: %v", i+1, err)
		}
	}
	return d
}

func TestFixedWindow_LimitBoundary(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(10, time.Minute)
	l.now = clock.now

	d := checkN(t, l.Check, "ip:1.2.3.4", 10)
	if !d.OK {
		t.Error("10th request within the window must be admitted")
	}
	if d.Remaining != 0 {
		t.Errorf("expected remaining 0 after 10th, got %d", d.Remaining)
	}

	d = checkN(t, l.Check, "ip:1.2.3.4", 1)
	if d.OK {
		t.Error("11th request within the window must be rejected")
	}
	if d.ResetMillis <= 0 {
		t.Errorf("expected positive reset, got %d", d.ResetMillis)
	}
}

func TestFixedWindow_WindowReset(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(10, time.Minute)
	l.now = clock.now

	checkN(t, l.Check, "k", 11)
	clock.advance(time.Minute)

	d := checkN(t, l.Check, "k", 1)
	if !d.OK {
		t.Error("request after window reset must be admitted")
	}
	if d.Remaining != 9 {
		t.Errorf("expected remaining limit-1 after reset, got %d", d.Remaining)
	}
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(1, time.Minute)
	l.now = clock.now

	if d := checkN(t, l.Check, "a", 2); d.OK {
		t.Error("second request for a must be rejected")
	}
	if d := checkN(t, l.Check, "b", 1); !d.OK {
		t.Error("first request for b must be admitted")
	}
}

func TestFixedWindow_ResetMillisCountsDown(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(10, time.Minute)
	l.now = clock.now

	first := checkN(t, l.Check, "k", 1)
	clock.advance(10 * time.Second)
	second := checkN(t, l.Check, "k", 1)

	if second.ResetMillis != first.ResetMillis-10_000 {
		t.Errorf("expected reset to shrink by 10s, got %d then %d", first.ResetMillis, second.ResetMillis)
	}
}

func TestFixedWindow_ConcurrentBurstNeverUndercounts(t *testing.T) {
	l := NewFixedWindow(10, time.Minute)

	const requests = 50
	admitted := make(chan bool, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Check("burst")
			if err != nil {
				t.Error(err)
				return
			}
			admitted <- d.OK
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	if count != 10 {
		t.Errorf("expected exactly 10 admitted, got %d", count)
	}
}

func TestBoltLimiter_LimitAndRestartPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rl.db")
	clock := newFakeClock()

	l, err := NewBoltLimiter(path, 3, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	l.now = clock.now

	if d := checkN(t, l.Check, "k", 3); !d.OK {
		t.Error("3rd request must be admitted")
	}
	if d := checkN(t, l.Check, "k", 1); d.OK {
		t.Error("4th request must be rejected")
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen: the window counter must survive the restart.
	l2, err := NewBoltLimiter(path, 3, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()
	l2.now = clock.now

	if d := checkN(t, l2.Check, "k", 1); d.OK {
		t.Error("counter must persist across reopen")
	}

	clock.advance(time.Minute)
	if d := checkN(t, l2.Check, "k", 1); !d.OK {
		t.Error("request after window reset must be admitted")
	}
}
