package progress

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTrackerCredit(t *testing.T) {
	tracker := NewTracker()
	tracker.Credit(5000)

	snap := tracker.Snapshot()
	if snap.Total != 5000 {
		t.Errorf("Total = %d, want 5000", snap.Total)
	}
	if snap.WindowSamples != 0 {
		t.Errorf("WindowSamples = %d, want 0: credited bytes are not a speed sample", snap.WindowSamples)
	}
	if snap.Rate != 0 {
		t.Errorf("Rate = %f, want 0", snap.Rate)
	}
}

func TestTrackerAddPublishesRate(t *testing.T) {
	tracker := NewTracker()
	time.Sleep(5 * time.Millisecond)
	tracker.Add(8192)

	snap := tracker.Snapshot()
	if snap.Total != 8192 {
		t.Errorf("Total = %d, want 8192", snap.Total)
	}
	if snap.Rate <= 0 {
		t.Errorf("Rate = %f, want > 0 after a sample", snap.Rate)
	}
	// The window resets once a sample is published
	if snap.WindowSamples != 0 || snap.WindowBytes != 0 {
		t.Errorf("window not reset: samples=%d bytes=%d", snap.WindowSamples, snap.WindowBytes)
	}
}

func TestTrackerTotalMonotonic(t *testing.T) {
	tracker := NewTracker()
	workers := 8
	addsPerWorker := 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < addsPerWorker; j++ {
				tracker.Add(10)
			}
		}()
	}
	wg.Wait()

	want := int64(workers * addsPerWorker * 10)
	if got := tracker.Total(); got != want {
		t.Errorf("Total = %d, want %d", got, want)
	}
}

func TestTrackerFailLatchesFirstError(t *testing.T) {
	tracker := NewTracker()
	first := errors.New("first fault")
	second := errors.New("second fault")

	tracker.Fail(first)
	tracker.Fail(second)

	if got := tracker.Err(); got != first {
		t.Errorf("Err = %v, want %v", got, first)
	}

	// Counting continues after a fault
	tracker.Add(100)
	if got := tracker.Total(); got != 100 {
		t.Errorf("Total after fault = %d, want 100", got)
	}
	if got := tracker.Snapshot().Err; got != first {
		t.Errorf("Snapshot.Err = %v, want %v", got, first)
	}
}

func TestTrackerWait(t *testing.T) {
	tracker := NewTracker()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(5 * time.Millisecond):
				tracker.Add(42)
			}
		}
	}()

	done := make(chan Snapshot, 1)
	go func() {
		done <- tracker.Wait()
	}()

	select {
	case snap := <-done:
		if snap.Total < 42 {
			t.Errorf("Total = %d, want at least 42", snap.Total)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after an update")
	}
}

func TestTrackerWaitOnFail(t *testing.T) {
	tracker := NewTracker()
	fault := errors.New("stream cut")
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(5 * time.Millisecond):
				tracker.Fail(fault)
			}
		}
	}()

	done := make(chan Snapshot, 1)
	go func() {
		done <- tracker.Wait()
	}()

	select {
	case snap := <-done:
		if snap.Err != fault {
			t.Errorf("Err = %v, want %v", snap.Err, fault)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after a fault")
	}
}
