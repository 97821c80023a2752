package components

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/allbin/scanbridge"
)

func TestStatusBarView(t *testing.T) {
	sb := NewStatusBar("scanbridge", 115200)
	sb.SetWidth(120)

	view := sb.View(scanbridge.Status{State: scanbridge.StateStarted}, 3, "12:00:00")
	assert.Contains(t, view, "STARTED")
	assert.Contains(t, view, "115200 baud 8N1")
	assert.Contains(t, view, "3 scans")
	assert.Contains(t, view, "12:00:00")
	assert.Equal(t, 120, lipgloss.Width(view))
}

func TestStatusBarShowsError(t *testing.T) {
	sb := NewStatusBar("scanbridge", 9600)
	sb.SetWidth(120)

	view := sb.View(scanbridge.Status{State: scanbridge.StateError, Message: "serial device disconnected"}, 0, "12:00:00")
	assert.Contains(t, view, "ERROR")
	assert.Contains(t, view, "serial device disconnected")
}

func TestIndicator(t *testing.T) {
	assert.Equal(t, "●", indicator(scanbridge.StateStarted))
	assert.Equal(t, "✗", indicator(scanbridge.StateNoPermission))
	assert.Equal(t, "○", indicator(scanbridge.StateConnecting))
}

func TestScanTableStartsEmpty(t *testing.T) {
	st := NewScanTable(80, 20)

	assert.Zero(t, st.RowCount())
	view := st.View()
	assert.Contains(t, view, "waiting for scans")
	assert.NotContains(t, view, "1/1")
}

func TestScanTable(t *testing.T) {
	st := NewScanTable(80, 20)
	assert.Zero(t, st.RowCount())
	assert.Contains(t, st.View(), "waiting for scans")

	at := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	st.SetLines([]scanbridge.Line{
		{Text: "[CARD]ABC57B05", Received: at},
		{Text: "[CARD]0042FF10", Received: at.Add(time.Second)},
	}, 2)

	assert.Equal(t, 2, st.RowCount())
	view := st.View()
	assert.Contains(t, view, "[CARD]ABC57B05")
	assert.Contains(t, view, "[CARD]0042FF10")
	assert.Contains(t, view, "08:30:01.000")
}
