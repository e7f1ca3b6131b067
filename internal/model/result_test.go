package model

import (
	"testing"
	"time"
)

// TestCrawlResult tests the CrawlResult helpers.
func TestCrawlResult(t *testing.T) {
	t.Parallel()

	t.Run("duration is finish minus start", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		result := &CrawlResult{
			StartedAt:  start,
			FinishedAt: start.Add(90 * time.Second),
		}

		if got := result.Duration(); got != 90*time.Second {
			t.Errorf("expected duration 90s, got %v", got)
		}
	})

	t.Run("completed only for completed status", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			status TerminalStatus
			want   bool
		}{
			{StatusCompleted, true},
			{StatusBlockedByRobots, false},
			{StatusAborted, false},
		}

		for _, tt := range tests {
			result := &CrawlResult{Status: tt.status}
			if got := result.Completed(); got != tt.want {
				t.Errorf("Completed() with status %q = %v, want %v", tt.status, got, tt.want)
			}
		}
	})
}

// TestPageTruncateBody tests body size capping.
func TestPageTruncateBody(t *testing.T) {
	t.Parallel()

	t.Run("truncates oversized body", func(t *testing.T) {
		t.Parallel()

		page := &Page{Body: []byte("0123456789")}
		page.TruncateBody(4)

		if string(page.Body) != "0123" {
			t.Errorf("expected body %q, got %q", "0123", page.Body)
		}
	})

	t.Run("leaves small body untouched", func(t *testing.T) {
		t.Parallel()

		page := &Page{Body: []byte("abc")}
		page.TruncateBody(100)

		if string(page.Body) != "abc" {
			t.Errorf("expected body %q, got %q", "abc", page.Body)
		}
	})

	t.Run("zero cap falls back to default", func(t *testing.T) {
		t.Parallel()

		page := &Page{Body: []byte("abc")}
		page.TruncateBody(0)

		if string(page.Body) != "abc" {
			t.Errorf("expected body preserved under default cap, got %q", page.Body)
		}
	})
}
