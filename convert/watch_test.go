package convert

import (
	"context"
	"os"
	"testing"
	"time"

	"cratesync/model"
)

func TestWatchConvertsOnFirstPassAndStops(t *testing.T) {
	t.Parallel()

	conv, crateRoot := newTestConverter(t)
	writeCrate(t, crateRoot, "Evening.crate", makeTracks(t.TempDir(), "Song"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summaries := make(chan *model.ConversionSummary, 1)
	opts := WatchOptions{
		Interval: 10 * time.Millisecond,
		OnSummary: func(s *model.ConversionSummary) {
			select {
			case summaries <- s:
			default:
			}
			cancel()
		},
	}

	done := make(chan error, 1)
	go func() { done <- conv.Watch(ctx, opts) }()

	select {
	case summary := <-summaries:
		if summary.TrackCount != 1 {
			t.Errorf("TrackCount=%d, want 1", summary.TrackCount)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no summary within 5s")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v, want nil on cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancellation")
	}

	if _, err := os.Stat(conv.Output); err != nil {
		t.Fatalf("output not written: %v", err)
	}
}

func TestWatchSkipsUnchangedTree(t *testing.T) {
	t.Parallel()

	conv, crateRoot := newTestConverter(t)
	writeCrate(t, crateRoot, "Static.crate", makeTracks(t.TempDir(), "Song"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conversions := 0
	opts := WatchOptions{
		Interval:  5 * time.Millisecond,
		OnSummary: func(*model.ConversionSummary) { conversions++ },
	}

	done := make(chan error, 1)
	go func() { done <- conv.Watch(ctx, opts) }()

	// Let several polling rounds pass over an unchanged tree.
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	if conversions != 1 {
		t.Fatalf("conversions=%d, want exactly 1 for an unchanged tree", conversions)
	}
}
