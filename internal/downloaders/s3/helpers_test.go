package s3

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/siphondl/siphon/internal/progress"
)

func TestTrackerWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "object.bin")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	tracker := progress.NewTracker()
	w := &trackerWriter{writer: file, tracker: tracker}

	// Out-of-order concurrent writes, the way the transfer manager lands parts
	chunks := []struct {
		data []byte
		off  int64
	}{
		{[]byte("world"), 5},
		{[]byte("hello"), 0},
		{[]byte("again"), 10},
	}
	var wg sync.WaitGroup
	for _, c := range chunks {
		wg.Add(1)
		go func(data []byte, off int64) {
			defer wg.Done()
			if _, err := w.WriteAt(data, off); err != nil {
				t.Errorf("WriteAt: %v", err)
			}
		}(c.data, c.off)
	}
	wg.Wait()

	if total := tracker.Total(); total != 15 {
		t.Errorf("tracker total = %d, want 15", total)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("helloworldagain")) {
		t.Errorf("file content = %q, want %q", got, "helloworldagain")
	}
}
