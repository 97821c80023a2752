package components

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/scanbridge"
	"github.com/allbin/scanbridge/internal/tui/colors"
	"github.com/allbin/scanbridge/internal/tui/styles"
)

const (
	columnKeyIndex = "n"
	columnKeyTime  = "time"
	columnKeyCode  = "code"

	// header, borders and footer
	tableChrome = 6
)

// ScanTable lists received scans, newest first.
type ScanTable struct {
	model  table.Model
	width  int
	height int
	rows   int
}

func NewScanTable(width, height int) *ScanTable {
	columns := []table.Column{
		table.NewColumn(columnKeyIndex, "#", 6),
		table.NewColumn(columnKeyTime, "Time", 14),
		table.NewFlexColumn(columnKeyCode, "Code", 1),
	}

	model := table.New(columns).
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colors.Text)).
		WithBaseStyle(lipgloss.NewStyle().
			BorderForeground(colors.Surface1).
			Foreground(colors.Subtext1).
			Align(lipgloss.Left)).
		HighlightStyle(lipgloss.NewStyle().Background(colors.Surface1)).
		Focused(true)

	st := &ScanTable{model: model}
	st.SetSize(width, height)
	st.SetLines(nil, 0)
	return st
}

func (st *ScanTable) SetSize(width, height int) {
	st.width, st.height = width, height
	pageSize := height - tableChrome
	if pageSize < 1 {
		pageSize = 1
	}
	st.model = st.model.WithTargetWidth(width).WithPageSize(pageSize)
}

// SetLines replaces the rows. total is the number of scans received so far,
// which can exceed len(lines) once old scans have been dropped.
func (st *ScanTable) SetLines(lines []scanbridge.Line, total int) {
	rows := make([]table.Row, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		n := total - (len(lines) - 1 - i)
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyIndex: strconv.Itoa(n),
			columnKeyTime:  lines[i].Received.Format("15:04:05.000"),
			columnKeyCode:  table.NewStyledCell(lines[i].Text, styles.CodeStyle),
		}))
	}
	st.rows = len(rows)
	st.model = st.model.WithRows(rows)
	if st.rows == 0 {
		st.model = st.model.WithStaticFooter(styles.MutedStyle.Render("waiting for scans"))
	} else {
		st.model = st.model.WithStaticFooter("")
	}
}

func (st *ScanTable) RowCount() int {
	return st.rows
}

func (st *ScanTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	st.model, cmd = st.model.Update(msg)
	return cmd
}

func (st *ScanTable) View() string {
	return st.model.View()
}
