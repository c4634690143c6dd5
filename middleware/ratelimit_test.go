package middleware

import (
	"testing"
	"time"
)

func TestIPLimiterWindow(t *testing.T) {
	l := newIPLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if ok, _ := l.allow("10.0.0.1"); !ok {
			t.Fatalf("request %d rejected within budget", i+1)
		}
	}
	ok, retryAfter := l.allow("10.0.0.1")
	if ok {
		t.Fatal("request over budget allowed")
	}
	if retryAfter <= 0 {
		t.Errorf("retryAfter = %v, want positive", retryAfter)
	}

	// Other clients have their own budget.
	if ok, _ := l.allow("10.0.0.2"); !ok {
		t.Error("second client rejected while first is throttled")
	}

	time.Sleep(60 * time.Millisecond)
	if ok, _ := l.allow("10.0.0.1"); !ok {
		t.Error("request rejected after window reset")
	}
}
