package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"revq/internal/model"
	"revq/internal/tui/widgetlist"
)

// — styles ——————————————————————————————————————————————————————————————————

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2)

	dimStyle  = lipgloss.NewStyle().Faint(true)
	boldStyle = lipgloss.NewStyle().Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	helpStyle = lipgloss.NewStyle().
			Faint(true).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().Faint(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 3).
			Width(58)

	commentStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			PaddingLeft(1).
			PaddingRight(1)

	selectedCommentStyle = commentStyle.
				BorderForeground(lipgloss.Color("205"))
)

// — browse screen ———————————————————————————————————————————————————————————

// rebuildBrowseItems recreates the widget list entries from the current
// display buffer. Called on every data arrival so heights stay current.
func (m *Model) rebuildBrowseItems() {
	items := make([]widgetlist.Item, len(m.summaries))
	for i, s := range m.summaries {
		items[i] = widgetlist.Item{
			Height: 2,
			Render: renderSummary(s),
		}
	}
	m.browse.Items = items
}

func renderSummary(s model.ReviewSummary) func(width int, selected bool) string {
	return func(width int, selected bool) string {
		title := truncate(s.Title, width-2)
		prefix := "  "
		if selected {
			prefix = selectedStyle.Render("▌ ")
			title = selectedStyle.Render(title)
		}
		meta := fmt.Sprintf("%s/%s #%d · %s", s.Owner, s.Repo, s.Number, humanize.Time(s.CreatedAt))
		return prefix + title + "\n  " + dimStyle.Render(truncate(meta, width-2))
	}
}

func (m Model) viewBrowse() string {
	header := titleStyle.Render("Review Requests") + m.filterLabel()

	listHeight := m.height - 4
	if listHeight < 1 {
		listHeight = 1
	}

	var body string
	if len(m.summaries) == 0 {
		if m.streaming {
			body = lipgloss.NewStyle().Padding(1, 2).Render("processing " + spinnerFrames[m.spinnerFrame])
		} else {
			body = lipgloss.NewStyle().Padding(1, 2).Render(dimStyle.Render("No open review requests"))
		}
		body = lipgloss.NewStyle().Height(listHeight).Render(body)
	} else {
		body = m.browse.View(m.width, listHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.statusLine(),
		m.renderHelp("↑/↓ navigate   enter review   f filter   o open PR   r refresh   q quit"),
	)
}

func (m Model) filterLabel() string {
	var parts []string
	if m.filter.Org != "" {
		parts = append(parts, "org:"+m.filter.Org)
	}
	if len(m.filter.Labels) > 0 {
		parts = append(parts, "label:"+strings.Join(m.filter.Labels, ","))
	}
	if len(parts) == 0 {
		return ""
	}
	return dimStyle.Render("  " + strings.Join(parts, " "))
}

func (m Model) statusLine() string {
	if m.streaming {
		return helpStyle.Render(fmt.Sprintf("%s fetching · %d so far", spinnerFrames[m.spinnerFrame], len(m.summaries)))
	}
	return helpStyle.Render(fmt.Sprintf("%d review requests", len(m.summaries)))
}

// — review screen ———————————————————————————————————————————————————————————

// rebuildReviewItems recreates the comment and check lists for the review
// on screen. Heights depend on wrapped text, so this runs whenever the
// review, the selection, or the window changes.
func (m *Model) rebuildReviewItems() {
	if m.review == nil {
		m.comments.Items = nil
		m.checks.Items = nil
		return
	}

	contentWidth := m.contentWidth()

	comments := make([]widgetlist.Item, len(m.review.Comments.Comments))
	for i, c := range m.review.Comments.Comments {
		body := c.Text
		height := lipgloss.Height(commentStyle.Width(contentWidth-2).Render(body)) // border adds 2 columns
		comments[i] = widgetlist.Item{
			Height: height,
			Render: renderComment(c),
		}
	}
	m.comments.Items = comments

	checks := make([]widgetlist.Item, len(m.review.StatusChecks))
	for i, c := range m.review.StatusChecks {
		checks[i] = widgetlist.Item{
			Height: 4,
			Render: renderStatusCheck(c),
		}
	}
	m.checks.Items = checks
}

func renderComment(c model.Comment) func(width int, selected bool) string {
	return func(width int, selected bool) string {
		style := commentStyle
		if selected {
			style = selectedCommentStyle
		}
		header := boldStyle.Render(c.Author)
		return style.Width(width - 2).Render(header + "\n" + c.Text)
	}
}

func renderStatusCheck(c model.StatusCheck) func(width int, selected bool) string {
	return func(width int, selected bool) string {
		style := commentStyle
		if selected {
			style = selectedCommentStyle
		}
		var title, line string
		switch check := c.(type) {
		case model.StatusContext:
			title = check.Context
			line = check.Description
			if line == "" {
				line = "no description"
			}
			line += "\n" + stateLabel(check.CurrentState(), check.State)
		case model.CheckRun:
			title = check.Name
			line = check.Status + "\n" + stateLabel(check.CurrentState(), check.Conclusion)
		}
		return style.Width(width - 2).Render(boldStyle.Render(title) + "\n" + line)
	}
}

func stateLabel(state model.CurrentState, text string) string {
	switch state {
	case model.StateSuccess:
		return okStyle.Render(text)
	case model.StateFailure:
		return errStyle.Render(text)
	case model.StateExpired:
		return infoStyle.Render(text)
	default:
		return warnStyle.Render(text)
	}
}

func (m Model) viewReview() string {
	if m.processing || m.review == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Padding(1, 2).Height(m.height-2).Render("processing "+spinnerFrames[m.spinnerFrame]),
			m.renderHelp("esc back   q quit"),
		)
	}

	r := m.review
	contentWidth := m.contentWidth()

	header := m.renderReviewHeader(r, contentWidth)
	help := m.renderHelp("s skip   tab switch focus   ↑/↓ navigate   esc back   q quit")

	remaining := m.height - lipgloss.Height(header) - lipgloss.Height(help)
	if remaining < 2 {
		remaining = 2
	}
	commentsHeight := remaining * 2 / 3
	checksHeight := remaining - commentsHeight

	commentsTitle := "Comments"
	if r.Comments.HasPrevious {
		commentsTitle += dimStyle.Render(" (older comments not shown)")
	}
	checksTitle := "Checks"
	if m.focusChecks {
		checksTitle = selectedStyle.Render(checksTitle)
	} else {
		commentsTitle = selectedStyle.Render(commentsTitle)
	}

	commentsBody := dimStyle.Render("  No comments")
	if len(m.comments.Items) > 0 {
		commentsBody = m.comments.View(contentWidth, commentsHeight-1)
	}
	checksBody := dimStyle.Render("  No status checks")
	if len(m.checks.Items) > 0 {
		checksBody = m.checks.View(contentWidth, checksHeight-1)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		boldStyle.Render("  "+commentsTitle),
		commentsBody,
		boldStyle.Render("  "+checksTitle),
		checksBody,
		help,
	)
}

func (m Model) renderReviewHeader(r *model.Review, contentWidth int) string {
	published := "unpublished"
	if r.PublishedAt != nil {
		published = humanize.Time(*r.PublishedAt)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(truncate(r.Title, contentWidth)) + "\n")
	b.WriteString("  " + labelStyle.Render("Repo     ") + r.Repo + fmt.Sprintf(" #%d", r.Number) + "\n")
	b.WriteString("  " + labelStyle.Render("Author   ") + r.Author + dimStyle.Render(" · "+published) + "\n")
	if len(r.Labels) > 0 {
		b.WriteString("  " + labelStyle.Render("Labels   ") + dimStyle.Render(strings.Join(r.Labels, ", ")) + "\n")
	}
	if r.Body != "" {
		desc := lipgloss.NewStyle().Width(contentWidth).Render(r.Body)
		lines := strings.Split(desc, "\n")
		if len(lines) > 4 {
			lines = append(lines[:4], dimStyle.Render("…"))
		}
		b.WriteString("\n  " + strings.Join(lines, "\n  ") + "\n")
	}
	return b.String()
}

// — shared helpers ——————————————————————————————————————————————————————————

func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderHelp(text string) string {
	sep := dimStyle.Render(strings.Repeat("─", max(m.width, 1)))
	return sep + "\n" + helpStyle.Render(text)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
