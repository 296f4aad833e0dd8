// Package progress renders a single live progress bar with pass/fail
// tallies while cases run. All output goes to stderr so the report on
// stdout stays clean.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Manager handles the progress display
type Manager struct {
	enabled      bool
	totalCases   int
	completed    int
	passed       int
	failed       int
	runningCases map[string]time.Time // key: "dataset:caseID"
	mu           sync.Mutex
	bar          *progressbar.ProgressBar
	startTime    time.Time
}

// NewManager creates a new progress manager
func NewManager(totalCases int, enabled bool) *Manager {
	m := &Manager{
		enabled:      enabled,
		totalCases:   totalCases,
		runningCases: make(map[string]time.Time),
		startTime:    time.Now(),
	}

	if enabled {
		m.setupProgressBar()
	}

	return m
}

// setupProgressBar initializes the progress bar
func (m *Manager) setupProgressBar() {
	m.bar = progressbar.NewOptions(m.totalCases,
		progressbar.OptionSetDescription("✓ 0 ✗ 0"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("cases"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "|",
			BarEnd:        "|",
		}),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

// StartCase marks a case as in flight
func (m *Manager) StartCase(dataset, caseID string) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.runningCases[dataset+":"+caseID] = time.Now()
	m.describeLocked()
}

// CompleteCase records one finished case and advances the bar. A case
// counts as passed only when extraction succeeded and every field
// passed.
func (m *Manager) CompleteCase(dataset, caseID string, passed bool) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.runningCases, dataset+":"+caseID)
	m.completed++
	if passed {
		m.passed++
	} else {
		m.failed++
	}

	m.describeLocked()
	_ = m.bar.Add(1)
}

// describeLocked refreshes the bar label. Callers must hold mu.
func (m *Manager) describeLocked() {
	m.bar.Describe(fmt.Sprintf("✓ %d ✗ %d │ %d in flight", m.passed, m.failed, len(m.runningCases)))
}

// Finish closes out the bar and prints the final tally.
func (m *Manager) Finish() {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.bar.Finish()
	fmt.Fprintf(os.Stderr, "Completed %d/%d cases in %s (✓ %d ✗ %d)\n",
		m.completed, m.totalCases, formatDuration(time.Since(m.startTime)), m.passed, m.failed)
}

// IsEnabled returns whether progress display is enabled
func (m *Manager) IsEnabled() bool {
	return m.enabled
}

// Completed returns the finished, passed and failed tallies so far.
func (m *Manager) Completed() (done, passed, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed, m.passed, m.failed
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
