package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/todo-board/internal/theme"
)

// Layout splits the terminal into a header line, the active screen and a
// status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left for the active screen.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// ContentY converts a terminal row into a row of the content area. Rows
// on the header come back negative.
func (l Layout) ContentY(y int) int {
	return y - l.HeaderHeight
}

// RenderHeader renders the title on the left and the connection state on
// the right.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	statusRendered := theme.HeaderStyle.Align(lipgloss.Right).Render(status)
	return titleRendered + l.fill(theme.HeaderStyle, l.Width-lipgloss.Width(titleRendered)-lipgloss.Width(statusRendered)) + statusRendered
}

// RenderStatusBar renders keyboard hints, with an optional notice pinned
// to the right edge.
func (l Layout) RenderStatusBar(hints string, notice string) string {
	rendered := theme.StatusBarStyle.Render(hints)
	right := ""
	if notice != "" {
		right = theme.StatusBarStyle.Render(notice)
	}
	return rendered + l.fill(theme.StatusBarStyle, l.Width-lipgloss.Width(rendered)-lipgloss.Width(right)) + right
}

func (l Layout) fill(style lipgloss.Style, gap int) string {
	if gap <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
}

// RenderWithFrame stacks the header, the content area and the status bar.
// The content is clipped so the bars stay on screen.
func (l Layout) RenderWithFrame(header string, content string, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
