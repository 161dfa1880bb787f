package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/muse/pkg/api"
)

// Actions are the callbacks the browser uses for documents.
type Actions struct {
	// Render returns the terminal rendering of a document.
	Render func(ctx context.Context, id string) (title, rendered string, err error)
	// Delete removes a document; nil disables the key.
	Delete func(ctx context.Context, id string) error
}

// Browse opens an interactive table of documents. Enter shows the selected
// document, d deletes it.
func Browse(ctx context.Context, docs []api.DocumentSummary, headers bool, act Actions) error {
	m := newModel(ctx, docs, headers, act)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

type model struct {
	ctx     context.Context
	act     Actions
	table   table.Model
	docs    []api.DocumentSummary
	headers bool
	width   int
	height  int
	pager   *pager
	status  string
	lastDur time.Duration
}

func newModel(ctx context.Context, docs []api.DocumentSummary, headers bool, act Actions) model {
	m := model{ctx: ctx, docs: docs, headers: headers, act: act}
	m.table = table.New(table.WithColumns(m.columnsFor(40, 8, 8, 16)), table.WithFocused(true))
	m.updateRows()
	m.applyStyles()
	return m
}

func (m *model) updateRows() {
	rows := make([]table.Row, 0, len(m.docs))
	for _, d := range m.docs {
		rows = append(rows, table.Row{
			d.Title,
			string(d.Permission),
			fmt.Sprintf("v%d", d.Version),
			d.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	m.table.SetRows(rows)
}

type renderedMsg struct {
	title, body string
	err         error
}

type deletedMsg struct {
	idx int
	id  string
	err error
	dur time.Duration
}

func (m model) renderCmd(id string) tea.Cmd {
	return func() tea.Msg {
		title, body, err := m.act.Render(m.ctx, id)
		return renderedMsg{title: title, body: body, err: err}
	}
}

func (m model) deleteCmd(id string, idx int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := m.act.Delete(m.ctx, id)
		return deletedMsg{idx: idx, id: id, err: err, dur: time.Since(start)}
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.pager != nil {
		if ws, ok := msg.(tea.WindowSizeMsg); ok {
			m.width, m.height = ws.Width, ws.Height
			m.applyLayout()
		}
		_, cmd := m.pager.Update(msg)
		if m.pager.closed {
			m.pager = nil
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case renderedMsg:
		if msg.err != nil {
			m.status = "Open failed: " + msg.err.Error()
			return m, nil
		}
		m.pager = newPager(msg.title, msg.body, m.width, m.height)
		return m, nil
	case deletedMsg:
		m.lastDur = msg.dur
		if msg.err != nil {
			m.status = fmt.Sprintf("Delete failed: %v", msg.err)
			return m, nil
		}
		if msg.idx >= 0 && msg.idx < len(m.docs) && m.docs[msg.idx].ID == msg.id {
			m.docs = append(m.docs[:msg.idx], m.docs[msg.idx+1:]...)
		}
		m.updateRows()
		cur := msg.idx
		if cur >= len(m.docs) {
			cur = len(m.docs) - 1
		}
		m.table.SetCursor(max(cur, 0))
		m.status = fmt.Sprintf("Deleted %s", msg.id)
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.applyLayout()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.docs) && m.act.Render != nil {
				m.status = "Opening…"
				return m, m.renderCmd(m.docs[idx].ID)
			}
			return m, nil
		case "d":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.docs) && m.act.Delete != nil {
				sel := m.docs[idx]
				if !sel.Permission.CanManage() {
					m.status = "Only the owner can delete " + sel.Title
					return m, nil
				}
				m.status = fmt.Sprintf("Deleting %s…", sel.Title)
				return m, m.deleteCmd(sel.ID, idx)
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) renderFooter() string {
	left := "↑/↓ navigate • enter show • d delete • q exit"
	var right string
	if m.status != "" {
		if m.lastDur > 0 {
			right = fmt.Sprintf("%s (%s) • ", m.status, m.lastDur.Round(time.Millisecond))
		} else {
			right = m.status + " • "
		}
	}
	right += fmt.Sprintf("%d documents ", len(m.docs))
	space := m.table.Width() - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		space = 1
	}
	return left + strings.Repeat(" ", space) + right
}

func (m model) View() string {
	if m.pager != nil {
		return m.pager.View()
	}
	if len(m.docs) == 0 {
		return "(no documents)\n"
	}
	return m.table.View() + "\n" + m.renderFooter() + "\n"
}

func (m *model) applyLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.table.SetHeight(max(6, m.height-1))
	m.table.SetWidth(m.width)
	if m.pager != nil {
		m.pager.resizeForTerm(m.width, m.height)
	}
	avail := m.width - 8 // cell padding
	if avail < 40 {
		return
	}
	accessW, versionW, updatedW := 8, 6, 16
	titleW := avail - accessW - versionW - updatedW
	m.table.SetColumns(m.columnsFor(titleW, accessW, versionW, updatedW))
}

func (m *model) applyStyles() {
	s := table.DefaultStyles()
	if m.headers {
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
	} else {
		s.Header = s.Header.BorderBottom(false).Bold(false)
	}
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	m.table.SetStyles(s)
}

// columnsFor returns columns with or without titles based on the headers flag.
func (m *model) columnsFor(titleW, accessW, versionW, updatedW int) []table.Column {
	titles := []string{"Title", "Access", "Ver", "Updated"}
	if !m.headers {
		titles = []string{"", "", "", ""}
	}
	return []table.Column{
		{Title: titles[0], Width: titleW},
		{Title: titles[1], Width: accessW},
		{Title: titles[2], Width: versionW},
		{Title: titles[3], Width: updatedW},
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
