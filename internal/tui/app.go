package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"revq/internal/logging"
	"revq/internal/model"
	"revq/internal/pipeline"
	"revq/internal/source"
	"revq/internal/tui/widgetlist"
)

// — state ———————————————————————————————————————————————————————————————————

type screen int

const (
	screenBrowse screen = iota
	screenReview
)

type appState int

const (
	stateNormal appState = iota
	stateFilter
)

// — spinner —————————————————————————————————————————————————————————————————

var spinnerFrames = []string{"|", "/", "-", "\\"}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// — messages ————————————————————————————————————————————————————————————————

// startMsg kicks off the first summary stream. Init cannot start it itself:
// Init runs on a throwaway copy of the model, only Update's returned model
// is kept, so the channel handle has to be stored there.
type startMsg struct{}

// Stream messages carry the generation of the stream that produced them.
// A cancelled stream's pending wait can still fire after its successor
// started; a stale generation tells Update to drop it.

type summaryMsg struct {
	gen  int
	item model.ReviewSummary
}

type summariesDoneMsg struct {
	gen int
}

type reviewMsg struct {
	gen    int
	review model.Review
}

type reviewsDoneMsg struct {
	gen int
}

// — commands ————————————————————————————————————————————————————————————————

// waitForSummary blocks until the pump delivers the next item or closes the
// channel. Re-issued after every received item.
func waitForSummary(ch <-chan model.ReviewSummary, gen int) tea.Cmd {
	return func() tea.Msg {
		item, ok := <-ch
		if !ok {
			return summariesDoneMsg{gen: gen}
		}
		return summaryMsg{gen: gen, item: item}
	}
}

func waitForReview(ch <-chan model.Review, gen int) tea.Cmd {
	return func() tea.Msg {
		review, ok := <-ch
		if !ok {
			return reviewsDoneMsg{gen: gen}
		}
		return reviewMsg{gen: gen, review: review}
	}
}

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			cmd = exec.Command("xdg-open", url)
		}
		cmd.Run()
		return nil
	}
}

// — model ———————————————————————————————————————————————————————————————————

type Model struct {
	src    source.Source
	filter source.Filter

	width  int
	height int
	screen screen
	state  appState

	// browse screen
	summaries    []model.ReviewSummary
	browse       widgetlist.List
	streaming    bool
	spinnerFrame int
	summaryCh    <-chan model.ReviewSummary
	browseGen    int
	cancelBrowse context.CancelFunc

	// review screen
	review       *model.Review
	processing   bool
	comments     widgetlist.List
	checks       widgetlist.List
	focusChecks  bool
	reviewCh     <-chan model.Review
	reviewGen    int
	cancelReview context.CancelFunc

	filterInput textinput.Model

	log zerolog.Logger
}

func New(src source.Source, f source.Filter) Model {
	ti := textinput.New()
	ti.Placeholder = "e.g. dependencies, bug"
	ti.CharLimit = 100

	browse := widgetlist.New(nil)
	browse.Circular = false

	return Model{
		src:         src,
		filter:      f,
		browse:      browse,
		comments:    widgetlist.New(nil),
		checks:      widgetlist.New(nil),
		filterInput: ti,
		log:         logging.Component("tui"),
	}
}

// startBrowseStream cancels any live summary stream and starts a fresh one
// for the current filter.
func (m *Model) startBrowseStream() tea.Cmd {
	if m.cancelBrowse != nil {
		m.cancelBrowse()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelBrowse = cancel
	m.browseGen++
	m.log.Info().
		Str("org", m.filter.Org).
		Strs("labels", m.filter.Labels).
		Msg("starting summary stream")

	pump := pipeline.NewSummaryPump(m.src, pipeline.Config{})
	m.summaryCh = pump.Run(ctx, m.filter)
	m.streaming = true
	m.summaries = nil
	m.browse.Items = nil
	m.browse.State.ClearSelection()
	return waitForSummary(m.summaryCh, m.browseGen)
}

// startReviewStream begins working through enriched reviews one at a time.
func (m *Model) startReviewStream() tea.Cmd {
	if m.cancelReview != nil {
		m.cancelReview()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelReview = cancel
	m.reviewGen++
	m.log.Info().Msg("starting review stream")

	pump := pipeline.NewDetailPump(m.src, pipeline.Config{})
	m.reviewCh = pump.Run(ctx, m.filter)
	m.review = nil
	m.processing = true
	return waitForReview(m.reviewCh, m.reviewGen)
}

// stopReviewStream abandons the detail stream; the pump notices on its next
// send and exits without fetching further pages. Bumping the generation
// invalidates any wait still pending on the old channel.
func (m *Model) stopReviewStream() {
	if m.cancelReview != nil {
		m.cancelReview()
		m.cancelReview = nil
	}
	m.reviewGen++
	m.reviewCh = nil
	m.review = nil
	m.processing = false
	m.focusChecks = false
}

// — tea.Model ———————————————————————————————————————————————————————————————

func (m Model) Init() tea.Cmd {
	return tea.Batch(func() tea.Msg { return startMsg{} }, tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		return m, m.startBrowseStream()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Wrapped-text heights depend on width.
		m.rebuildBrowseItems()
		m.rebuildReviewItems()
		return m, nil

	case tickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		return m, tickCmd()

	case summaryMsg:
		if msg.gen != m.browseGen {
			return m, nil
		}
		m.summaries = append(m.summaries, msg.item)
		m.rebuildBrowseItems()
		if _, ok := m.browse.State.Selected(); !ok {
			m.browse.State.Select(0)
		}
		return m, waitForSummary(m.summaryCh, m.browseGen)

	case summariesDoneMsg:
		if msg.gen != m.browseGen {
			return m, nil
		}
		m.streaming = false
		return m, nil

	case reviewMsg:
		if msg.gen != m.reviewGen {
			return m, nil
		}
		m.processing = false
		m.review = &msg.review
		m.focusChecks = false
		m.comments.State.ClearSelection()
		m.checks.State.ClearSelection()
		m.rebuildReviewItems()
		return m, nil

	case reviewsDoneMsg:
		if msg.gen != m.reviewGen {
			return m, nil
		}
		// Stream exhausted or aborted: back to the overview. The two are
		// indistinguishable here, closure is the only signal.
		m.stopReviewStream()
		m.screen = screenBrowse
		return m, nil
	}

	if m.state == stateFilter {
		return m.updateFilter(msg)
	}
	switch m.screen {
	case screenReview:
		return m.updateReview(msg)
	default:
		return m.updateBrowse(msg)
	}
}

func (m Model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.shutdown()
			return m, tea.Quit
		case "j", "down":
			m.browse.Next()
			return m, nil
		case "k", "up":
			m.browse.Previous()
			return m, nil
		case "r":
			return m, m.startBrowseStream()
		case "f":
			m.state = stateFilter
			m.filterInput.SetValue(strings.Join(m.filter.Labels, ", "))
			m.filterInput.Focus()
			return m, textinput.Blink
		case "o":
			if s := m.selectedSummary(); s != nil {
				return m, openURLCmd(fmt.Sprintf("https://github.com/%s/%s/pull/%d", s.Owner, s.Repo, s.Number))
			}
			return m, nil
		case "enter":
			m.screen = screenReview
			return m, m.startReviewStream()
		}
	}
	return m, nil
}

func (m Model) updateReview(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.shutdown()
			return m, tea.Quit
		case "esc":
			m.stopReviewStream()
			m.screen = screenBrowse
			return m, nil
		case "s", "enter":
			if m.reviewCh != nil && !m.processing {
				m.processing = true
				m.review = nil
				return m, waitForReview(m.reviewCh, m.reviewGen)
			}
			return m, nil
		case "tab":
			m.focusChecks = !m.focusChecks
			return m, nil
		case "j", "down":
			if m.focusChecks {
				m.checks.Next()
			} else {
				m.comments.Next()
			}
			m.rebuildReviewItems()
			return m, nil
		case "k", "up":
			if m.focusChecks {
				m.checks.Previous()
			} else {
				m.comments.Previous()
			}
			m.rebuildReviewItems()
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.state = stateNormal
			m.filterInput.Blur()
			return m, nil
		case "enter":
			m.filter.Labels = parseLabels(m.filterInput.Value())
			m.state = stateNormal
			m.filterInput.Blur()
			return m, m.startBrowseStream()
		}
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m *Model) shutdown() {
	if m.cancelBrowse != nil {
		m.cancelBrowse()
	}
	if m.cancelReview != nil {
		m.cancelReview()
	}
}

func (m Model) selectedSummary() *model.ReviewSummary {
	if len(m.summaries) == 0 {
		return nil
	}
	idx, ok := m.browse.State.Selected()
	if !ok || idx >= len(m.summaries) {
		return nil
	}
	return &m.summaries[idx]
}

func parseLabels(raw string) []string {
	var labels []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	var base string
	switch m.screen {
	case screenReview:
		base = m.viewReview()
	default:
		base = m.viewBrowse()
	}

	if m.state == stateFilter {
		return m.renderFilterModalOver(base)
	}
	return base
}

func (m Model) renderFilterModalOver(string) string {
	var b strings.Builder
	b.WriteString(boldStyle.Render("Label Filter") + "\n\n")
	b.WriteString("Labels (comma separated)\n")
	b.WriteString(m.filterInput.View() + "\n")
	b.WriteString("\n" + dimStyle.Render("Restarts the stream with the new filter"))

	modal := modalStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("0")),
	)
}
