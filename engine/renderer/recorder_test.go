package renderer

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestPartitionRangesCoverage(t *testing.T) {
	const workers = 4
	for _, n := range []int{0, 1, workers - 1, workers, workers + 1, 1000} {
		ranges := partitionRanges(n, workers)

		if n == 0 && len(ranges) != 0 {
			t.Fatalf("n=0 produced %d ranges, want 0", len(ranges))
		}
		if len(ranges) > workers {
			t.Fatalf("n=%d produced %d ranges, more than %d workers", n, len(ranges), workers)
		}

		// Ranges must tile [0, n) exactly, in order, with no empties.
		next := 0
		for _, r := range ranges {
			if r[0] != next {
				t.Fatalf("n=%d: range starts at %d, want %d", n, r[0], next)
			}
			if r[1] <= r[0] {
				t.Fatalf("n=%d: empty or inverted range [%d, %d)", n, r[0], r[1])
			}
			next = r[1]
		}
		if next != n {
			t.Fatalf("n=%d: ranges cover [0, %d), want [0, %d)", n, next, n)
		}
	}
}

func TestPartitionRangesChunkSize(t *testing.T) {
	// 10 items over 4 workers: ceil(10/4) = 3, so {3, 3, 3, 1}.
	ranges := partitionRanges(10, 4)
	want := [][2]int{{0, 3}, {3, 6}, {6, 9}, {9, 10}}
	if len(ranges) != len(want) {
		t.Fatalf("got %d ranges, want %d", len(ranges), len(want))
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %v, want %v", i, ranges[i], want[i])
		}
	}
}

func TestPartitionRangesDegenerateInputs(t *testing.T) {
	if got := partitionRanges(5, 0); got != nil {
		t.Errorf("workers=0 returned %v, want nil", got)
	}
	if got := partitionRanges(-1, 4); got != nil {
		t.Errorf("n=-1 returned %v, want nil", got)
	}
	// One worker takes everything.
	ranges := partitionRanges(7, 1)
	if len(ranges) != 1 || ranges[0] != [2]int{0, 7} {
		t.Errorf("workers=1 returned %v, want [[0 7]]", ranges)
	}
}

func TestFanOutRunsEveryWorker(t *testing.T) {
	const workers = 8
	var ran [workers]atomic.Bool

	err := fanOut(workers, func(worker int) error {
		ran[worker].Store(true)
		return nil
	})
	if err != nil {
		t.Fatalf("fanOut returned %v", err)
	}
	for i := range ran {
		if !ran[i].Load() {
			t.Errorf("worker %d never ran", i)
		}
	}
}

func TestFanOutPropagatesErrors(t *testing.T) {
	wantErr := errors.New("recording failed")
	err := fanOut(4, func(worker int) error {
		if worker == 2 {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("fanOut error = %v, want %v", err, wantErr)
	}
}

func TestFanOutZeroWorkers(t *testing.T) {
	called := false
	if err := fanOut(0, func(int) error { called = true; return nil }); err != nil {
		t.Fatalf("fanOut(0) returned %v", err)
	}
	if called {
		t.Fatal("fanOut(0) invoked the worker function")
	}
}

// Ten entities, six of which carry drawable geometry, split across four
// workers: the partitions must be {3, 3, 3, 1} and exactly six draws must
// be issued in total, no matter how the goroutines interleave.
func TestParallelRecordingScenario(t *testing.T) {
	hasMesh := []bool{true, false, true, true, false, true, false, true, true, false}
	const workers = 4

	ranges := partitionRanges(len(hasMesh), workers)
	if len(ranges) != workers {
		t.Fatalf("got %d partitions, want %d", len(ranges), workers)
	}

	var draws atomic.Int64
	err := fanOut(len(ranges), func(worker int) error {
		for i := ranges[worker][0]; i < ranges[worker][1]; i++ {
			if hasMesh[i] {
				draws.Add(1)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("fanOut returned %v", err)
	}
	if draws.Load() != 6 {
		t.Fatalf("recorded %d draws, want 6", draws.Load())
	}
}
