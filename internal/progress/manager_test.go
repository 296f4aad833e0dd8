package progress

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledManagerIsNoOp(t *testing.T) {
	m := NewManager(10, false)

	if m.IsEnabled() {
		t.Fatal("expected manager to be disabled")
	}

	// None of these should panic or touch a bar.
	m.StartCase("receipts", "case-1")
	m.CompleteCase("receipts", "case-1", true)
	m.Finish()

	done, passed, failed := m.Completed()
	if done != 0 || passed != 0 || failed != 0 {
		t.Errorf("disabled manager recorded tallies: done=%d passed=%d failed=%d", done, passed, failed)
	}
}

func TestCompleteCaseTallies(t *testing.T) {
	m := NewManager(4, true)

	m.StartCase("receipts", "a")
	m.CompleteCase("receipts", "a", true)
	m.StartCase("receipts", "b")
	m.CompleteCase("receipts", "b", false)
	m.StartCase("handwriting", "c")
	m.CompleteCase("handwriting", "c", true)

	done, passed, failed := m.Completed()
	if done != 3 {
		t.Errorf("expected 3 completed, got %d", done)
	}
	if passed != 2 {
		t.Errorf("expected 2 passed, got %d", passed)
	}
	if failed != 1 {
		t.Errorf("expected 1 failed, got %d", failed)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	m := NewManager(50, true)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.StartCase("receipts", string(rune('a'+n%26)))
			m.CompleteCase("receipts", string(rune('a'+n%26)), n%2 == 0)
		}(i)
	}
	wg.Wait()
	m.Finish()

	done, passed, failed := m.Completed()
	if done != 50 {
		t.Errorf("expected 50 completed, got %d", done)
	}
	if passed+failed != 50 {
		t.Errorf("tallies do not add up: passed=%d failed=%d", passed, failed)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{2500 * time.Millisecond, "2.5s"},
		{90 * time.Second, "1m30s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
