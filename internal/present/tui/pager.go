package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pager shows rendered markdown in a framed, scrollable viewport.
type pager struct {
	title   string
	vp      viewport.Model
	width   int
	height  int
	padX    int
	padY    int
	box     lipgloss.Style
	content string
	// standalone pagers quit on q/esc; embedded ones hand control back
	standalone bool
	closed     bool
}

func newPager(title, content string, termW, termH int) *pager {
	p := &pager{title: title, padX: 2, padY: 0}
	p.resizeForTerm(termW, termH)
	p.setContent(content)
	return p
}

func (p *pager) resizeForTerm(termW, termH int) {
	if termW <= 0 || termH <= 0 {
		termW, termH = 80, 24
	}
	w := int(float64(termW) * 0.8)
	if termW < 80 {
		w = termW - 2
	}
	if w < 32 {
		w = max(24, termW)
	}
	h := termH - 2 // title + footer line
	if h < 8 {
		h = 8
	}
	p.width, p.height = w, h
	p.box = lipgloss.NewStyle().
		Width(w-2).
		Padding(p.padY, p.padX).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63"))

	innerW := w - 2 - p.padX*2 // borders + padding
	innerH := h - 2 - p.padY*2
	if innerW < 10 {
		innerW = 10
	}
	if innerH < 3 {
		innerH = 3
	}
	if p.vp.Width == 0 {
		p.vp = viewport.New(innerW, innerH)
	} else {
		p.vp.Width = innerW
		p.vp.Height = innerH
	}
	p.vp.SetContent(p.content)
}

func (p *pager) setContent(s string) {
	p.content = s
	p.vp.SetContent(s)
	p.vp.GotoTop()
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (p *pager) Init() tea.Cmd { return nil }

func (p *pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		p.resizeForTerm(x.Width, x.Height)
		return p, nil
	case tea.KeyMsg:
		switch x.String() {
		case "q", "esc", "ctrl+c":
			p.closed = true
			if p.standalone || x.String() == "ctrl+c" {
				return p, tea.Quit
			}
			return p, nil
		case "g", "home":
			p.vp.GotoTop()
			return p, nil
		case "G", "end":
			p.vp.GotoBottom()
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return p, cmd
}

func (p *pager) View() string {
	footer := footerStyle.Render("↑/↓ scroll • g/G top/bottom • q close")
	return titleStyle.Render(p.title) + "\n" + p.box.Render(p.vp.View()) + "\n" + footer
}

// RunPager shows rendered content full screen until the user quits.
func RunPager(title, rendered string) error {
	p := newPager(title, rendered, 0, 0)
	p.standalone = true
	_, err := tea.NewProgram(p, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
