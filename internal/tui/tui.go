// Package tui is a terminal front end for the blog's search widget.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"impractical.co/blogster/internal/pipeline"
	"impractical.co/blogster/internal/search"
)

const excerptRunes = 80

// mountedMsg reports that the widget's pool has loaded.
type mountedMsg struct{}

type styles struct {
	title   lipgloss.Style
	hint    lipgloss.Style
	match   lipgloss.Style
	link    lipgloss.Style
	excerpt lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).MarginBottom(1),
		hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		match:   lipgloss.NewStyle().Bold(true),
		link:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		excerpt: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingLeft(2),
	}
}

// Model is the bubbletea model of the search screen.
type Model struct {
	ctx     context.Context
	widget  *search.Widget
	siteURL string

	input  textinput.Model
	state  search.State
	styles styles
}

// New returns a model driving widget. Match links are shown under siteURL.
// ctx is used to load the pool and carries the logger load failures go to.
func New(ctx context.Context, widget *search.Widget, siteURL string) Model {
	input := textinput.New()
	input.Placeholder = "Search posts..."
	input.CharLimit = 100
	input.Width = 40
	input.Focus()

	return Model{
		ctx:     ctx,
		widget:  widget,
		siteURL: strings.TrimRight(siteURL, "/"),
		input:   input,
		state:   widget.State(),
		styles:  defaultStyles(),
	}
}

// Init starts loading the pool.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.mount())
}

func (m Model) mount() tea.Cmd {
	return func() tea.Msg {
		m.widget.Mount(m.ctx)
		return mountedMsg{}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case mountedMsg:
		// keys handled since Mount returned are already in the widget
		m.state = m.widget.State()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		m.state = m.widget.Type(m.input.Value())
	}
	return m, cmd
}

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Search Posts"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch m.state.Kind {
	case search.Loading:
		b.WriteString(m.styles.hint.Render("Loading posts..."))
		b.WriteString("\n")
	case search.Ready:
		b.WriteString(m.styles.hint.Render(fmt.Sprintf("Type to search %d posts.", len(m.state.Pool))))
		b.WriteString("\n")
	case search.Filtering:
		if len(m.state.Matches) == 0 {
			b.WriteString(m.styles.hint.Render(fmt.Sprintf("No posts found matching %q", m.state.Query)))
			b.WriteString("\n")
			break
		}
		for _, post := range m.state.Matches {
			b.WriteString(m.styles.match.Render(post.Title))
			b.WriteString("\n")
			b.WriteString(m.styles.link.Render(m.siteURL + pipeline.PostHref(post.ID)))
			b.WriteString("\n")
			b.WriteString(m.styles.excerpt.Render(pipeline.Truncate(firstLine(post.Body), excerptRunes)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.styles.hint.Render("esc to quit"))
	b.WriteString("\n")
	return b.String()
}

// State returns the widget state the screen shows.
func (m Model) State() search.State {
	return m.state
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
