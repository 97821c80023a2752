package models

import (
	"sync"
	"time"

	"github.com/allbin/scanbridge"
)

// StatusMsg carries a bridge status transition into the TUI.
type StatusMsg struct {
	Status scanbridge.Status
	At     time.Time
}

// LineMsg carries one scan into the TUI.
type LineMsg struct {
	Line scanbridge.Line
}

// BridgeClosedMsg is sent once both bridge channels are closed.
type BridgeClosedMsg struct{}

// DefaultHistory is how many scans the listen screen keeps.
const DefaultHistory = 500

// ScanModel is the state behind the listen screen.
type ScanModel struct {
	baudRate int
	history  int

	status scanbridge.Status
	since  time.Time
	lines  []scanbridge.Line
	total  int
	ready  bool

	mu sync.RWMutex
}

func NewScanModel(baudRate, history int) *ScanModel {
	if history <= 0 {
		history = DefaultHistory
	}
	return &ScanModel{
		baudRate: baudRate,
		history:  history,
		status:   scanbridge.Status{State: scanbridge.StateStopped},
	}
}

func (m *ScanModel) BaudRate() int {
	return m.baudRate
}

func (m *ScanModel) Status() scanbridge.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Since is when the current status was entered.
func (m *ScanModel) Since() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.since
}

func (m *ScanModel) SetStatus(status scanbridge.Status, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.since = at
}

func (m *ScanModel) IsConnected() bool {
	return m.Status().State == scanbridge.StateStarted
}

// AddLine records a scan, dropping the oldest once history is full.
func (m *ScanModel) AddLine(line scanbridge.Line) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.lines = append(m.lines, line)
	if over := len(m.lines) - m.history; over > 0 {
		m.lines = append(m.lines[:0], m.lines[over:]...)
	}
}

// Lines returns the retained scans, oldest first.
func (m *ScanModel) Lines() []scanbridge.Line {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scanbridge.Line, len(m.lines))
	copy(out, m.lines)
	return out
}

// Total counts every scan since the last Clear, including dropped ones.
func (m *ScanModel) Total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

func (m *ScanModel) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
	m.total = 0
}

func (m *ScanModel) IsReady() bool {
	return m.ready
}

func (m *ScanModel) SetReady(ready bool) {
	m.ready = ready
}
