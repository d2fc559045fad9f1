package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/siphondl/siphon/internal/progress"
)

// jobRow is the display state of one job. Transfer counts come from the
// job's tracker; status transitions come from the scheduler.
type jobRow struct {
	name      string
	total     int64
	tracker   *progress.Tracker
	status    string
	completed bool
	failure   string
	startTime time.Time
	lastTime  time.Time
	lastBytes int64
	speed     float64 // bytes/sec from total deltas between ticks
}

// Manager owns the terminal while jobs run, rendering every row on a tick.
// It reads tracker snapshots and never mutates them.
type Manager struct {
	rows     []*jobRow
	mutex    sync.RWMutex
	doneCh   chan struct{}
	wg       sync.WaitGroup
	numLines int
	tick     time.Duration
}

func NewManager() *Manager {
	return &Manager{
		doneCh: make(chan struct{}),
		tick:   500 * time.Millisecond,
	}
}

// Register adds a display row and returns its id.
func (m *Manager) Register(name string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	now := time.Now()
	m.rows = append(m.rows, &jobRow{
		name:      name,
		status:    "pending",
		startTime: now,
		lastTime:  now,
	})
	return len(m.rows) - 1
}

func (m *Manager) SetStatus(id int, status string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rows[id].status = status
}

// SetName updates a row after job building resolves the real output path.
func (m *Manager) SetName(id int, name string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rows[id].name = name
}

// Track attaches the job's tracker and expected size once downloading starts.
func (m *Manager) Track(id int, total int64, tracker *progress.Tracker) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rows[id].total = total
	m.rows[id].tracker = tracker
	m.rows[id].status = "downloading"
}

func (m *Manager) Complete(id int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rows[id].completed = true
}

func (m *Manager) Fail(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rows[id].completed = true
	m.rows[id].failure = fmt.Sprintf("Error: %v", err)
}

func (m *Manager) StartDisplay() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.render()
			case <-m.doneCh:
				return
			}
		}
	}()
}

// StopDisplay halts the ticker, prints the final state and a summary line.
func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.wg.Wait()
	m.render()
	m.showSummary()
}

func (m *Manager) render() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.numLines != 0 {
		fmt.Printf("\033[%dA\033[J", m.numLines)
	}
	barWidth := 30
	if getTerminalWidth() < 100 {
		barWidth = 20
	}
	for _, row := range m.rows {
		name := row.name
		if len(name) > 25 {
			name = "..." + name[len(name)-22:]
		}
		var downloaded int64
		if row.tracker != nil {
			downloaded = row.tracker.Snapshot().Total
		}
		now := time.Now()
		if timeDiff := now.Sub(row.lastTime).Seconds(); timeDiff > 0 {
			row.speed = float64(downloaded-row.lastBytes) / timeDiff
			row.lastTime = now
			row.lastBytes = downloaded
		}
		switch {
		case row.failure != "":
			fmt.Printf("%s %s %s\n", FError(StyleSymbols["fail"]), name, FError(row.failure))
		case row.completed:
			fmt.Printf("%s %s %s\n", FSuccess(StyleSymbols["pass"]), name, FDetail(FormatBytes(uint64(downloaded))))
		case downloaded > 0 && row.total > 0:
			fmt.Printf("%s %s %s/%s %s ETA: %s\n", name, ProgressBar(downloaded, row.total, barWidth),
				FormatBytes(uint64(downloaded)), FormatBytes(uint64(row.total)),
				FormatSpeed(row.speed), formatETA(row.total-downloaded, row.speed))
		case downloaded > 0:
			// Size unknown, bytes and speed only
			fmt.Printf("%s %s %s\n", name, FormatBytes(uint64(downloaded)), FormatSpeed(row.speed))
		default:
			fmt.Printf("%s %s %s\n", FPending(StyleSymbols["pending"]), name, row.status)
		}
	}
	m.numLines = len(m.rows)
}

func (m *Manager) showSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Println()
	var totalBytes int64
	elapsed := float64(0)
	failures := 0
	for _, row := range m.rows {
		if row.tracker != nil {
			totalBytes += row.tracker.Total()
		}
		if e := time.Since(row.startTime).Seconds(); e > elapsed {
			elapsed = e
		}
		if row.failure != "" {
			failures++
		}
	}
	if len(m.rows) > 1 {
		rows := make([][]string, 0, len(m.rows))
		for _, row := range m.rows {
			var downloaded int64
			if row.tracker != nil {
				downloaded = row.tracker.Total()
			}
			result := StyleSymbols["pass"]
			if row.failure != "" {
				result = StyleSymbols["fail"]
			}
			rows = append(rows, []string{result, row.name, FormatBytes(uint64(downloaded))})
		}
		fmt.Println(SummaryTable([]string{"", "Name", "Size"}, rows))
	}
	if elapsed > 0 {
		fmt.Printf("Total Data: %s, Overall Speed: %s, Time Elapsed: %.2fs\n",
			FormatBytes(uint64(totalBytes)), FormatSpeed(float64(totalBytes)/elapsed), elapsed)
	}
	if failures > 0 {
		PrintError(fmt.Sprintf("%d job(s) failed", failures))
	}
}

func formatETA(remaining int64, speed float64) string {
	if speed <= 0 || remaining <= 0 {
		return "calculating..."
	}
	etaSeconds := int64(float64(remaining) / speed)
	if etaSeconds < 60 {
		return fmt.Sprintf("%ds", etaSeconds)
	} else if etaSeconds < 3600 {
		return fmt.Sprintf("%dm %ds", etaSeconds/60, etaSeconds%60)
	}
	return fmt.Sprintf("%dh %dm", etaSeconds/3600, (etaSeconds%3600)/60)
}
