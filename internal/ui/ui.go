package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/geo-martino/musify/internal/models"
	"github.com/geo-martino/musify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CollectionListView ViewState = iota
	TrackListView
	ConfirmView
	MatchView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.MatchEngine
	width        int
	height       int
	collections  []models.Collection
	queued       []models.Collection
	collList     list.Model
	trackList    list.Model
	selected     *models.Collection
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	bar          progress.Model
	report       *tasks.Report
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model over the given library collections.
func NewModel(ctx context.Context, engine *tasks.MatchEngine, collections []models.Collection) *Model {
	items := make([]list.Item, len(collections))
	for i, c := range collections {
		items[i] = collectionItem{collection: c}
	}
	collList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	collList.Title = "Library Collections"

	return &Model{
		ctx:         ctx,
		view:        CollectionListView,
		engine:      engine,
		collections: collections,
		collList:    collList,
		bar:         progress.New(progress.WithDefaultGradient()),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.collList.SetSize(msg.Width-4, msg.Height-8)
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CollectionListView:
			return m.handleCollectionListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgMatchComplete:
			data := msg.data.(struct {
				report *tasks.Report
				err    error
			})
			m.report = data.report
			m.err = data.err
			m.view = ResultView
			m.progressChan = nil
			return m, nil
		}
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case CollectionListView:
		return m.renderCollectionList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case MatchView:
		return m.renderMatch()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleCollectionListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a":
		m.selected = nil
		m.queued = m.collections
		m.view = ConfirmView
		return m, nil
	case "enter":
		selected := m.collList.SelectedItem()
		if selected != nil {
			if c, ok := selected.(collectionItem); ok {
				m.selected = &c.collection
				m.showTracks(c.collection)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.collList, cmd = m.collList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = CollectionListView
		return m, nil
	case "enter":
		m.queued = []models.Collection{*m.selected}
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = CollectionListView
		return m, nil
	case "y":
		m.view = MatchView
		return m, m.startMatch()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = CollectionListView
		m.selected = nil
		m.report = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CollectionListView:
		m.collList, cmd = m.collList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) showTracks(collection models.Collection) {
	items := make([]list.Item, len(collection.Tracks))
	for i, track := range collection.Tracks {
		items[i] = trackItem{track: track}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = fmt.Sprintf("Tracks in '%s'", collection.Name)
	m.trackList.SetSize(m.width-4, m.height-8)
	m.view = TrackListView
}

func (m *Model) startMatch() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	queued := m.queued
	ch := m.progressChan

	go func() {
		report, err := m.engine.Run(m.ctx, ch, queued, tasks.RunOpts{})
		m.report = report
		m.err = err
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return matchCompleteMsg(m.report, m.err)
		}

		update, ok := <-m.progressChan
		if !ok {
			return matchCompleteMsg(m.report, m.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderCollectionList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.all, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.collList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	matchKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "match"),
	)
	helpKeys := []key.Binding{matchKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	var title, info string
	if m.selected != nil {
		title = styles.title.Render(fmt.Sprintf("Match '%s' against the remote catalog?", m.selected.Name))
		info = fmt.Sprintf("\nCollection: %s\nTracks: %d\n", m.selected.Name, len(m.selected.Tracks))
	} else {
		total := 0
		for _, c := range m.queued {
			total += len(c.Tracks)
		}
		title = styles.title.Render("Match the entire library against the remote catalog?")
		info = fmt.Sprintf("\nCollections: %d\nTracks: %d\n", len(m.queued), total)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderMatch() string {
	title := styles.title.Render("Matching Library")

	var phase string
	var bar string
	switch m.progress.Phase {
	case tasks.MatchCollection:
		phase = fmt.Sprintf("Matching collections (%d/%d)", m.progress.Step, m.progress.Total)
		if m.progress.Total > 0 {
			bar = "\n" + m.bar.ViewAs(float64(m.progress.Step)/float64(m.progress.Total))
		}
	case tasks.MatchTrack:
		phase = fmt.Sprintf("Matching tracks (%d/%d)", m.progress.Step, m.progress.Total)
		if m.progress.Total > 0 {
			bar = "\n" + m.bar.ViewAs(float64(m.progress.Step)/float64(m.progress.Total))
		}
	default:
		phase = "Searching catalog..."
	}

	return fmt.Sprintf("%s\n\n%s%s\n%s", title, phase, bar, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Match failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.report == nil {
		return styles.err.Render("No report available\n\nPress r to retry, q to quit")
	}

	total := m.report.Matched + m.report.Unmatched + m.report.Failed
	rate := 0.0
	if total > 0 {
		rate = float64(m.report.Matched) / float64(total) * 100
	}

	title := styles.ok.Render("✓ Match Complete!")
	info := fmt.Sprintf(
		"\nMatched: %d/%d (%.1f%%)\nSkipped: %d\nFailed: %d",
		m.report.Matched, total, rate, m.report.Skipped, m.report.Failed,
	)

	var unmatched string
	if m.report.Unmatched > 0 {
		unmatched = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("No match for %d tracks:", m.report.Unmatched)))
		for _, coll := range m.report.Collections {
			for _, result := range coll.Results {
				if coll.Err == nil && result.Track.Title != "" && !result.Matched() {
					unmatched += fmt.Sprintf("\n  • %s - %s", result.Track.Artist, result.Track.Title)
				}
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, unmatched, helpView)
}
