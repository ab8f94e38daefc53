package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	tests := []struct {
		name  string
		items int
		jobs  int
	}{
		{name: "empty", items: 0, jobs: 0},
		{name: "single item", items: 1, jobs: 0},
		{name: "fewer items than workers", items: 3, jobs: 8},
		{name: "many items default workers", items: 1000, jobs: 0},
		{name: "many items capped workers", items: 1000, jobs: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var count int64
			Parallelize(tt.items, tt.jobs, func(start, end int) {
				atomic.AddInt64(&count, int64(end-start))
			})
			if count != int64(tt.items) {
				t.Errorf("processed %d items, want %d", count, tt.items)
			}
		})
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, 0, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("sequential call got range [%d,%d), want [0,10)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("below threshold should run exactly once, got %d calls", calls)
	}
}

func TestParallelizeWithThresholdParallel(t *testing.T) {
	var count int64
	ParallelizeWithThreshold(5000, 100, 4, func(start, end int) {
		atomic.AddInt64(&count, int64(end-start))
	})
	if count != 5000 {
		t.Errorf("processed %d items, want 5000", count)
	}
}
