package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	SelectView
	ConfirmView
	MigrateView
	ResultView
)

// Backend is what the TUI needs from the rest of the application.
type Backend interface {
	// Playlists lists the source account's playlists.
	Playlists(ctx context.Context) ([]models.Playlist, error)
	// Migrate runs a migration of refs, sending progress on the channel (which it must not close).
	Migrate(ctx context.Context, refs []models.PlaylistRef, progress chan<- tasks.ProgressUpdate) (*models.Report, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	backend  Backend
	view     ViewState
	width    int
	height   int
	list     list.Model
	ready    bool
	selected map[string]bool
	progress tasks.ProgressUpdate
	updates  <-chan tasks.ProgressUpdate
	report   *models.Report
	err      error
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model backed by backend.
func NewModel(ctx context.Context, backend Backend) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title.UnsetMarginBottom()

	return &Model{
		ctx:      ctx,
		backend:  backend,
		view:     LoadingView,
		selected: map[string]bool{},
		spinner:  sp,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init fetches the playlists and starts the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlaylists(), m.spinner.Tick)
}

// Selected returns the refs of the selected playlists in list order.
func (m *Model) Selected() []models.PlaylistRef {
	var refs []models.PlaylistRef
	for _, item := range m.list.Items() {
		if pl, ok := item.(playlistItem); ok && m.selected[pl.playlist.ID] {
			refs = append(refs, models.PlaylistRef(pl.playlist.ID))
		}
	}
	return refs
}

// Report returns the report of the last migration, if any.
func (m *Model) Report() *models.Report { return m.report }

// Err returns the last error shown by the TUI.
func (m *Model) Err() error { return m.err }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.ready {
			m.list.SetSize(max(msg.Width-4, 0), max(msg.Height-6, 0))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case SelectView:
			return m.handleSelectKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case MigrateView:
			// runs to completion; ctrl+c still quits
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == SelectView {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		res := msg.data.(playlistsResult)
		if res.err != nil {
			m.err = res.err
			m.view = ResultView
			return m, nil
		}
		items := make([]list.Item, len(res.playlists))
		for i, pl := range res.playlists {
			items[i] = playlistItem{playlist: pl, selected: m.selected[pl.ID]}
		}
		m.list = list.New(items, list.NewDefaultDelegate(), max(m.width-4, 0), max(m.height-6, 0))
		m.list.Title = "Spotify Playlists"
		m.list.Styles.Title = m.list.Styles.Title.Background(styles.title.GetForeground())
		m.ready = true
		m.view = SelectView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.updates)

	case MsgProgressClosed:
		m.updates = nil
		return m, nil

	case MsgMigrationComplete:
		res := msg.data.(migrationResult)
		m.report = res.report
		m.err = res.err
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSelectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		m.toggleCurrent()
		return m, nil
	case key.Matches(msg, m.keys.all):
		m.toggleAll()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if len(m.Selected()) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) toggleCurrent() {
	item, ok := m.list.SelectedItem().(playlistItem)
	if !ok {
		return
	}
	id := item.playlist.ID
	m.selected[id] = !m.selected[id]
	item.selected = m.selected[id]
	m.list.SetItem(m.list.GlobalIndex(), item)
}

// toggleAll selects every playlist, or clears the selection when all are already selected.
func (m *Model) toggleAll() {
	items := m.list.Items()
	all := len(items) > 0
	for _, it := range items {
		if pl, ok := it.(playlistItem); ok && !m.selected[pl.playlist.ID] {
			all = false
			break
		}
	}

	for i, it := range items {
		pl, ok := it.(playlistItem)
		if !ok {
			continue
		}
		m.selected[pl.playlist.ID] = !all
		pl.selected = !all
		m.list.SetItem(i, pl)
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = MigrateView
		m.progress = tasks.ProgressUpdate{Message: "Starting migration..."}
		return m, m.startMigration()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = SelectView
		return m, nil
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.report = nil
		m.err = nil
		m.selected = map[string]bool{}
		m.ready = false
		m.view = LoadingView
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.backend.Playlists(m.ctx)
		return playlistsFetchedMsg(playlists, err)
	}
}

// startMigration runs the migration in a command and relays progress until the channel closes.
func (m *Model) startMigration() tea.Cmd {
	refs := m.Selected()
	progress := make(chan tasks.ProgressUpdate, 64)
	m.updates = progress

	run := func() tea.Msg {
		report, err := m.backend.Migrate(m.ctx, refs, progress)
		close(progress)
		return migrationCompleteMsg(report, err)
	}
	return tea.Batch(run, waitForProgress(progress))
}

func waitForProgress(progress <-chan tasks.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return progressClosedMsg()
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Loading playlists...\n\n%s", m.spinner.View(), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	case SelectView:
		return m.renderSelect()
	case ConfirmView:
		return m.renderConfirm()
	case MigrateView:
		return m.renderMigrate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderSelect() string {
	status := styles.help.Render(fmt.Sprintf("%d selected", len(m.Selected())))
	helpKeys := []key.Binding{m.keys.toggle, m.keys.all, m.keys.enter, m.keys.quit}
	return fmt.Sprintf("%s\n%s  %s", m.list.View(), status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	refs := m.Selected()
	title := styles.title.Render(fmt.Sprintf("Migrate %d playlists to YouTube?", len(refs)))

	var b strings.Builder
	for _, item := range m.list.Items() {
		if pl, ok := item.(playlistItem); ok && m.selected[pl.playlist.ID] {
			fmt.Fprintf(&b, "  • %s (%d tracks)\n", pl.playlist.Name, pl.playlist.TrackCount)
		}
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", title, b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderMigrate() string {
	title := styles.title.Render("Migrating Playlists")

	phase := "Processing"
	switch m.progress.Phase {
	case tasks.FetchSource:
		phase = "Fetching from Spotify"
	case tasks.SearchTracks:
		phase = "Searching YouTube"
	case tasks.CreatePlaylist:
		phase = "Creating playlists"
	case tasks.InsertTracks:
		phase = "Inserting tracks"
	case tasks.Finished:
		phase = "Finishing"
	}
	if m.progress.Total > 0 {
		phase = fmt.Sprintf("%s (%d/%d)", phase, m.progress.Step, m.progress.Total)
	}

	return fmt.Sprintf("%s\n%s %s\n%s", title, m.spinner.View(), phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.report == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Error: %v", m.err)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	out := RenderReport(m.report)
	if m.err != nil {
		out = fmt.Sprintf("%s\n%s", out, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	return fmt.Sprintf("%s\n\n%s", out, helpView)
}
