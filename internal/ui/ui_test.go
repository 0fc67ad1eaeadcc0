package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/tasks"
)

type fakeBackend struct {
	playlists []models.Playlist
	listErr   error
	report    *models.Report
	runErr    error
	got       []models.PlaylistRef
}

func (f *fakeBackend) Playlists(ctx context.Context) ([]models.Playlist, error) {
	return f.playlists, f.listErr
}

func (f *fakeBackend) Migrate(ctx context.Context, refs []models.PlaylistRef, progress chan<- tasks.ProgressUpdate) (*models.Report, error) {
	f.got = refs
	progress <- tasks.ProgressUpdate{Phase: tasks.SearchTracks, Step: 1, Total: 2, Message: "searching"}
	return f.report, f.runErr
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedModel(t *testing.T, backend *fakeBackend) *Model {
	t.Helper()
	m := NewModel(context.Background(), backend)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m.Update(m.fetchPlaylists()())
	if m.view != SelectView {
		t.Fatalf("expected SelectView after load, got %d", m.view)
	}
	return m
}

func samplePlaylists() []models.Playlist {
	return []models.Playlist{
		{ID: "p1", Name: "Focus", TrackCount: 10},
		{ID: "p2", Name: "Gym", TrackCount: 4},
		{ID: "p3", Name: "Sleep", TrackCount: 7},
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModelSelection(t *testing.T) {
	t.Run("toggle current and move", func(t *testing.T) {
		m := loadedModel(t, &fakeBackend{playlists: samplePlaylists()})

		m.Update(runes("x"))
		m.Update(runes("j"))
		m.Update(runes("j"))
		m.Update(runes("x"))

		got := m.Selected()
		if len(got) != 2 || got[0] != "p1" || got[1] != "p3" {
			t.Errorf("expected [p1 p3], got %v", got)
		}

		m.Update(runes("x"))
		if got := m.Selected(); len(got) != 1 || got[0] != "p1" {
			t.Errorf("expected toggle off to leave [p1], got %v", got)
		}
	})

	t.Run("toggle all then none", func(t *testing.T) {
		m := loadedModel(t, &fakeBackend{playlists: samplePlaylists()})

		m.Update(runes("a"))
		if got := len(m.Selected()); got != 3 {
			t.Errorf("expected 3 selected, got %d", got)
		}
		m.Update(runes("a"))
		if got := len(m.Selected()); got != 0 {
			t.Errorf("expected selection cleared, got %d", got)
		}
	})

	t.Run("enter without selection stays", func(t *testing.T) {
		m := loadedModel(t, &fakeBackend{playlists: samplePlaylists()})
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != SelectView {
			t.Errorf("expected SelectView, got %d", m.view)
		}
	})

	t.Run("selection mark rendered", func(t *testing.T) {
		m := loadedModel(t, &fakeBackend{playlists: samplePlaylists()})
		m.Update(runes("x"))
		if !strings.Contains(m.View(), "[x] Focus") {
			t.Errorf("expected marked item in view:\n%s", m.View())
		}
		if !strings.Contains(m.View(), "1 selected") {
			t.Error("expected selection count in view")
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := loadedModel(t, &fakeBackend{playlists: samplePlaylists()})
		_, cmd := m.Update(runes("q"))
		if !isQuit(cmd) {
			t.Error("expected quit command")
		}
	})

	t.Run("load failure shows error", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeBackend{listErr: errors.New("token expired")})
		m.Update(m.fetchPlaylists()())

		if m.view != ResultView {
			t.Fatalf("expected ResultView, got %d", m.view)
		}
		if !strings.Contains(m.View(), "token expired") {
			t.Errorf("expected error in view:\n%s", m.View())
		}
	})
}

func TestModelMigration(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	report := models.NewReport("run-1", start)
	report.Status = models.RunCompleted
	report.FinishedAt = start.Add(time.Second)
	report.PlaylistsRequested = 1
	report.PlaylistsFetched = 1
	report.PlaylistsMigrated = 1
	report.TracksInserted = 4

	backend := &fakeBackend{playlists: samplePlaylists(), report: report}
	m := loadedModel(t, backend)

	m.Update(runes("j"))
	m.Update(runes("x"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != ConfirmView {
		t.Fatalf("expected ConfirmView, got %d", m.view)
	}
	if !strings.Contains(m.View(), "Migrate 1 playlists") || !strings.Contains(m.View(), "Gym (4 tracks)") {
		t.Errorf("unexpected confirm view:\n%s", m.View())
	}

	t.Run("n returns to selection", func(t *testing.T) {
		m.Update(runes("n"))
		if m.view != SelectView {
			t.Fatalf("expected SelectView, got %d", m.view)
		}
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	})

	_, cmd := m.Update(runes("y"))
	if m.view != MigrateView {
		t.Fatalf("expected MigrateView, got %d", m.view)
	}

	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("expected a batch of run and progress commands, got %T", cmd())
	}

	done := batch[0]()
	if len(backend.got) != 1 || backend.got[0] != "p2" {
		t.Errorf("expected migrate called with [p2], got %v", backend.got)
	}

	_, next := m.Update(batch[1]())
	if m.progress.Phase != tasks.SearchTracks || !strings.Contains(m.View(), "Searching YouTube (1/2)") {
		t.Errorf("expected progress to be shown:\n%s", m.View())
	}

	closed := next()
	if msg, ok := closed.(Msg); !ok || msg.kind != MsgProgressClosed {
		t.Errorf("expected progress closed, got %#v", closed)
	}
	m.Update(closed)

	m.Update(done)
	if m.view != ResultView {
		t.Fatalf("expected ResultView, got %d", m.view)
	}
	if m.Report() != report {
		t.Error("expected report to be kept")
	}
	if !strings.Contains(m.View(), "Migration complete") {
		t.Errorf("expected success summary:\n%s", m.View())
	}

	t.Run("restart reloads playlists", func(t *testing.T) {
		_, cmd := m.Update(runes("r"))
		if m.view != LoadingView || m.Report() != nil {
			t.Fatalf("expected reset to LoadingView")
		}
		m.Update(cmd())
		if m.view != SelectView || len(m.Selected()) != 0 {
			t.Errorf("expected fresh selection view, got view %d with %v", m.view, m.Selected())
		}
	})
}

func TestRenderReport(t *testing.T) {
	t.Run("aborted run lists problems", func(t *testing.T) {
		r := models.NewReport("r", time.Now())
		r.Status = models.RunAborted
		r.Error = "credential invalid or expired"
		r.TracksFailed = 2
		r.Playlists = []models.PlaylistOutcome{
			{Ref: "bad", Status: models.OutcomeDropped, Error: "status 404"},
			{Title: "Mix", Status: models.OutcomeFailed, Error: "quota"},
			{Title: "Empty", Status: models.OutcomeSkipped},
			{Title: "Fine", Status: models.OutcomeMigrated},
		}

		out := RenderReport(r)
		for _, want := range []string{
			"Migration aborted",
			"bad dropped: status 404",
			"Mix failed: quota",
			"Empty skipped",
			"2 resolved tracks could not be inserted",
			"credential invalid or expired",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Fine") {
			t.Error("migrated playlists should not be listed as problems")
		}
	})
}
