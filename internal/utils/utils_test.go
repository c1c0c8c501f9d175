package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	var waited time.Duration
	after = func(d time.Duration) <-chan time.Time {
		waited = d
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	defer func() { after = time.After }()

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waited != 3*time.Second {
		t.Fatalf("expected to wait 3s, got %v", waited)
	}

	waited = 0
	if err := WaitFor(context.Background(), 0); err != nil || waited != 0 {
		t.Fatalf("expected non-positive duration to return immediately")
	}
}

func TestWaitForCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := WaitFor(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled for zero wait, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		limit   time.Duration
		want    time.Duration
	}{
		{attempt: 0, want: time.Second},
		{attempt: 1, want: time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 4, want: 8 * time.Second},
		{attempt: 4, limit: 5 * time.Second, want: 5 * time.Second},
		{attempt: 40, limit: time.Minute, want: time.Minute},
	}
	for _, tt := range tests {
		if got := Backoff(time.Second, tt.attempt, tt.limit); got != tt.want {
			t.Fatalf("Backoff(1s, %d, %v) = %v, want %v", tt.attempt, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in    string
		limit int
		want  string
	}{
		"non-positive limit": {in: "Golden State University", limit: 0, want: ""},
		"fits":               {in: "Biology", limit: 20, want: "Biology"},
		"cut":                {in: "Computer Science", limit: 8, want: "Computer..."},
		"trimmed first":      {in: "  Reach  ", limit: 5, want: "Reach"},
		"multibyte":          {in: "Économie générale", limit: 7, want: "Économi..."},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.in, tt.limit); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
