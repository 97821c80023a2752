/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/scanbridge/internal/tui/components"
	"github.com/allbin/scanbridge/internal/tui/keys"
	"github.com/allbin/scanbridge/internal/tui/models"
	"github.com/allbin/scanbridge/internal/tui/styles"
)

// tickMsg refreshes the clock in the status bar.
type tickMsg time.Time

// listenModel represents the Bubble Tea model for listen --tui
type listenModel struct {
	*models.ScanModel
	bridge    listenBridge
	table     *components.ScanTable
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.ListenKeys
	now       func() time.Time
}

func newListenModel(b listenBridge, baudRate int) *listenModel {
	return &listenModel{
		ScanModel: models.NewScanModel(baudRate, models.DefaultHistory),
		bridge:    b,
		table:     components.NewScanTable(80, 20),
		statusBar: components.NewStatusBar("scanbridge", baudRate),
		help:      help.New(),
		keys:      keys.NewListenKeys(),
		now:       time.Now,
	}
}

func runListenTUI(ctx context.Context, b listenBridge, baudRate int) error {
	m := newListenModel(b, baudRate)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go forwardEvents(b, p)

	_, err := p.Run()

	b.Stop()
	b.Close()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// forwardEvents feeds bridge events to the program until both channels close.
func forwardEvents(b listenBridge, p *tea.Program) {
	statuses, lines := b.Statuses(), b.Lines()
	for statuses != nil || lines != nil {
		select {
		case st, ok := <-statuses:
			if !ok {
				statuses = nil
				continue
			}
			p.Send(models.StatusMsg{Status: st, At: time.Now()})
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			p.Send(models.LineMsg{Line: line})
		}
	}
	p.Send(models.BridgeClosedMsg{})
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *listenModel) Init() tea.Cmd {
	return tea.Batch(m.start(), tick())
}

func (m *listenModel) start() tea.Cmd {
	return func() tea.Msg {
		m.bridge.Start(m.BaudRate())
		return nil
	}
}

func (m *listenModel) stop() tea.Cmd {
	return func() tea.Msg {
		m.bridge.Stop()
		return nil
	}
}

func (m *listenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Status bar is single line, plus the content border
		m.table.SetSize(msg.Width, msg.Height-2)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.SetReady(true)

	case tickMsg:
		return m, tick()

	case models.StatusMsg:
		m.SetStatus(msg.Status, msg.At)

	case models.LineMsg:
		m.AddLine(msg.Line)
		m.table.SetLines(m.Lines(), m.Total())

	case models.BridgeClosedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.Restart):
			return m, m.start()

		case key.Matches(msg, m.keys.Stop):
			return m, m.stop()

		case key.Matches(msg, m.keys.Clear):
			m.Clear()
			m.table.SetLines(nil, 0)

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			return m, m.table.Update(msg)
		}
	}

	return m, nil
}

func (m *listenModel) View() string {
	content := "Initializing..."
	if m.IsReady() {
		content = m.table.View()
	}

	statusBar := m.statusBar.View(m.Status(), m.Total(), m.now().Format("15:04:05"))
	contentWithBorder := styles.ContentBorderStyle.Render(content)

	if m.help.ShowAll {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			contentWithBorder,
			styles.HelpStyle.Render(m.help.View(m.keys)),
			statusBar,
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		contentWithBorder,
		statusBar,
	)
}
