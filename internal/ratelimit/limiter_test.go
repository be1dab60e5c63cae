package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fixedClock returns a limiter clock and a function advancing it.
func fixedClock(l *Limiter) func(time.Duration) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func TestAllow_Burst(t *testing.T) {
	tests := []struct {
		name  string
		burst int
	}{
		{"burst 1", 1},
		{"burst 3", 3},
		{"burst 10", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLimiter(1.0, tt.burst)
			fixedClock(l)
			for i := range tt.burst {
				if !l.Allow("k") {
					t.Fatalf("request %d should be allowed (within burst)", i+1)
				}
			}
			if l.Allow("k") {
				t.Error("request after burst exhaustion should be rejected")
			}
		})
	}
}

func TestAllow_RefillAfterWait(t *testing.T) {
	l := NewLimiter(10.0, 2)
	advance := fixedClock(l)

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected rejection after burst")
	}

	advance(200 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("expected allow after token refill")
	}
}

func TestAllow_RefillCappedAtBurst(t *testing.T) {
	l := NewLimiter(100.0, 3)
	advance := fixedClock(l)

	for range 3 {
		l.Allow("k")
	}
	advance(10 * time.Second)

	for i := range 3 {
		if !l.Allow("k") {
			t.Errorf("request %d should be allowed after refill", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("4th request should be rejected (burst cap)")
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	l := NewLimiter(1.0, 1)
	fixedClock(l)

	l.Allow("a")
	if l.Allow("a") {
		t.Error("key a should be exhausted")
	}
	if !l.Allow("b") {
		t.Error("key b should have its own bucket")
	}
}

func TestReserve_RetryAfter(t *testing.T) {
	l := NewLimiter(2.0, 1)
	advance := fixedClock(l)

	if ok, _ := l.Reserve("k"); !ok {
		t.Fatal("first reservation should succeed")
	}
	ok, wait := l.Reserve("k")
	if ok {
		t.Fatal("second reservation should fail")
	}
	if wait != 500*time.Millisecond {
		t.Errorf("retry after = %v, want 500ms", wait)
	}

	advance(250 * time.Millisecond)
	_, wait = l.Reserve("k")
	if wait != 250*time.Millisecond {
		t.Errorf("retry after = %v, want 250ms", wait)
	}
}

func TestReserve_ZeroRate(t *testing.T) {
	l := NewLimiter(0, 1)
	fixedClock(l)

	l.Allow("k")
	ok, wait := l.Reserve("k")
	if ok || wait != 0 {
		t.Errorf("Reserve() = %v, %v; want false, 0", ok, wait)
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	l := NewLimiter(0, 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("k") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 100 {
		t.Errorf("allowed %d requests, want exactly 100 with zero refill", allowed)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()
	tools := []string{
		"polisim_simulate",
		"polisim_polarization",
		"polisim_cluster",
		"polisim_generate",
		"polisim_electorate_save",
		"polisim_electorate_list",
		"polisim_electorate_get",
		"polisim_stats",
	}
	if len(limiters) != len(tools) {
		t.Errorf("got %d limiters, want %d", len(limiters), len(tools))
	}
	for _, tool := range tools {
		if limiters[tool] == nil {
			t.Errorf("missing limiter for %s", tool)
		}
	}
}

func TestToolBursts(t *testing.T) {
	tests := []struct {
		tool  string
		burst int
	}{
		{"polisim_simulate", 10},
		{"polisim_cluster", 5},
		{"polisim_generate", 5},
		{"polisim_electorate_save", 3},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			l := NewToolLimiters()[tt.tool]
			fixedClock(l)
			for i := range tt.burst {
				if !l.Allow(tt.tool) {
					t.Fatalf("call %d rejected within burst", i+1)
				}
			}
			if l.Allow(tt.tool) {
				t.Errorf("call %d should exceed burst %d", tt.burst+1, tt.burst)
			}
		})
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := ToolLimiters{"polisim_save": NewLimiter(0, 1)}

	if err := CheckLimit(limiters, "polisim_save"); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	err := CheckLimit(limiters, "polisim_save")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second call error = %v, want ErrRateLimited", err)
	}
	var lerr *LimitError
	if !errors.As(err, &lerr) || lerr.Tool != "polisim_save" {
		t.Errorf("error = %#v, want *LimitError for polisim_save", err)
	}

	if err := CheckLimit(limiters, "unlimited_tool"); err != nil {
		t.Errorf("unconfigured tool should be allowed, got %v", err)
	}
}
