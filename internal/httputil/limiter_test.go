package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLimiterPerIP(t *testing.T) {
	l := NewLimiter(2, 0)

	if !l.Acquire("1.1.1.1") || !l.Acquire("1.1.1.1") {
		t.Fatal("first two acquires should succeed")
	}
	if l.Acquire("1.1.1.1") {
		t.Error("third acquire for same IP should fail")
	}
	if !l.Acquire("2.2.2.2") {
		t.Error("other IP should not be affected")
	}

	l.Release("1.1.1.1")
	if got := l.Count("1.1.1.1"); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}
	if !l.Acquire("1.1.1.1") {
		t.Error("acquire after release should succeed")
	}

	l.Release("1.1.1.1")
	l.Release("1.1.1.1")
	if got := l.Count("1.1.1.1"); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}

func TestLimiterGlobalCap(t *testing.T) {
	l := NewLimiter(5, 2)
	l.Acquire("1.1.1.1")
	l.Acquire("2.2.2.2")
	if l.Acquire("3.3.3.3") {
		t.Error("acquire beyond global cap should fail")
	}
}

func TestLimitMiddleware(t *testing.T) {
	l := NewLimiter(1, 0)
	release := make(chan struct{})
	entered := make(chan struct{})
	h := l.Limit(false, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/qualify", nil)
		req.RemoteAddr = "9.9.9.9:1000"
		h.ServeHTTP(httptest.NewRecorder(), req)
	}()
	<-entered

	req := httptest.NewRequest(http.MethodPost, "/api/v1/qualify", nil)
	req.RemoteAddr = "9.9.9.9:2000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}

	close(release)
	<-done
	if got := l.Count("9.9.9.9"); got != 0 {
		t.Errorf("Count after completion = %d, want 0", got)
	}
}
