package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgProgressUpdate
	MsgProgressClosed
	MsgMigrationComplete
)

type playlistsResult struct {
	playlists []models.Playlist
	err       error
}

type migrationResult struct {
	report *models.Report
	err    error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsResult{playlists, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

func progressClosedMsg() Msg {
	return Msg{kind: MsgProgressClosed}
}

// migrationCompleteMsg is the constructor for [MsgMigrationComplete]
func migrationCompleteMsg(report *models.Report, err error) Msg {
	return Msg{kind: MsgMigrationComplete, data: migrationResult{report, err}}
}
