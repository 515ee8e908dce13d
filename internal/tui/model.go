// Package tui is the terminal front end. It renders session views and turns
// key presses into session events.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/raine/contractor-pro/internal/app"
	"github.com/raine/contractor-pro/internal/nav"
	"github.com/raine/contractor-pro/internal/screen"
)

// Sender accepts session events.
type Sender interface {
	Send(ev app.Event)
}

// ViewMsg delivers a freshly rendered view to the model.
type ViewMsg screen.View

// keyActions maps keys to the action they trigger. "d" is resolved against
// the current view because it toggles the detail modal.
var keyActions = map[string]screen.ActionID{
	"n":   screen.ActionNewEstimate,
	"c":   screen.ActionCapture,
	" ":   screen.ActionCapture,
	"r":   screen.ActionRetry,
	"b":   screen.ActionDashboard,
	"esc": screen.ActionDashboard,
}

var actionKeys = map[screen.ActionID]string{
	screen.ActionNewEstimate: "n",
	screen.ActionCapture:     "c",
	screen.ActionRetry:       "r",
	screen.ActionDashboard:   "b",
	screen.ActionOpenDetail:  "d",
	screen.ActionCloseDetail: "d",
}

// Model is the bubbletea model.
type Model struct {
	sender  Sender
	view    screen.View
	ready   bool
	width   int
	height  int
	spinner spinner.Model
	ticking bool
}

// New creates a model that sends events to sender.
func New(sender Sender) Model {
	return Model{
		sender:  sender,
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(loadingStyle)),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ViewMsg:
		m.view = screen.View(msg)
		m.ready = true
		if m.view.Loading && !m.ticking {
			m.ticking = true
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.view.Loading {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "q" || key == "ctrl+c" {
		return m, tea.Quit
	}

	var action screen.ActionID
	if key == "d" {
		action = screen.ActionOpenDetail
		if m.view.DetailOpen {
			action = screen.ActionCloseDetail
		}
	} else {
		var ok bool
		if action, ok = keyActions[key]; !ok {
			return m, nil
		}
	}
	if key == "esc" && m.view.DetailOpen {
		action = screen.ActionCloseDetail
	}

	if !m.view.HasAction(action) {
		return m, nil
	}
	return m, m.send(app.EventFor(action))
}

func (m Model) send(ev app.Event) tea.Cmd {
	sender := m.sender
	return func() tea.Msg {
		if sender != nil {
			sender.Send(ev)
		}
		return nil
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	v := m.view
	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Title))
	b.WriteString("\n")

	switch {
	case v.DetailOpen:
		b.WriteString(m.renderDetail(v))
	case v.Screen == nav.Dashboard:
		b.WriteString(m.renderDashboard(v))
	case v.Screen == nav.Capture:
		b.WriteString(m.renderCapture(v))
	case v.Screen == nav.Estimate:
		b.WriteString(m.renderEstimate(v))
	}

	if v.Error != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(v.Error))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp(v))
	return b.String()
}

func (m Model) renderDashboard(v screen.View) string {
	var b strings.Builder
	for _, line := range v.Lines {
		b.WriteString(sectionStyle.Render(line))
		b.WriteString("\n")
	}
	for _, j := range v.Jobs {
		left := lipgloss.JoinVertical(lipgloss.Left,
			clientStyle.Render(j.Client),
			mutedStyle.Render(j.Type),
		)
		right := lipgloss.JoinVertical(lipgloss.Right,
			priceStyle.Render(j.Price.String()),
			statusStyle.Render(j.Status),
		)
		gap := strings.Repeat(" ", max(2, m.cardWidth()-lipgloss.Width(left)-lipgloss.Width(right)))
		b.WriteString(cardStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, left, gap, right)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderCapture(v screen.View) string {
	var b strings.Builder
	for _, line := range v.Lines {
		b.WriteString(imageStyle.Width(m.cardWidth()).Align(lipgloss.Center).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderEstimate(v screen.View) string {
	var b strings.Builder
	if v.Loading {
		b.WriteString(imageStyle.Render("Site photo: " + v.Image.String()))
		b.WriteString("\n")
		for i, text := range v.LoadingText {
			prefix := "  "
			if i == 0 {
				prefix = m.spinner.View() + " "
			}
			b.WriteString(loadingStyle.Render(prefix + text))
			b.WriteString("\n")
		}
		return b.String()
	}

	if !v.Rendered.IsZero() {
		b.WriteString(imageStyle.Render("Renovated: " + v.Rendered.String()))
		b.WriteString("\n")
		if v.ImageLabel != "" {
			b.WriteString(mutedStyle.Render(v.ImageLabel))
			b.WriteString("\n")
		}
	}
	if v.Estimate != nil {
		b.WriteString("\n")
		b.WriteString(totalStyle.Render(v.Estimate.Total.String()))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Estimated Total"))
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Cost Breakdown"))
		b.WriteString("\n")
		for _, item := range v.Estimate.Breakdown {
			cost := item.Cost.String()
			gap := strings.Repeat(" ", max(2, m.cardWidth()-lipgloss.Width(item.Label)-lipgloss.Width(cost)))
			b.WriteString(item.Label + gap + priceStyle.Render(cost))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderDetail(v screen.View) string {
	content := fmt.Sprintf("Renovated view\n\n%s", v.Rendered.String())
	style := imageStyle.Width(m.cardWidth()).Align(lipgloss.Center)
	if m.height > 8 {
		style = style.Height(m.height - 8)
	}
	return style.Render(content)
}

func (m Model) renderHelp(v screen.View) string {
	parts := make([]string, 0, len(v.Actions)+1)
	for _, a := range v.Actions {
		if k, ok := actionKeys[a.ID]; ok {
			parts = append(parts, keyStyle.Render(k)+" "+a.Label)
		}
	}
	parts = append(parts, keyStyle.Render("q")+" Quit")
	return helpStyle.Render(strings.Join(parts, "  •  "))
}

func (m Model) cardWidth() int {
	if m.width <= 0 {
		return 48
	}
	return min(m.width-4, 72)
}
