package tasks

import (
	"fmt"

	"github.com/desertthunder/plmigrate/internal/models"
)

// ProgressUpdate represents a progress event during a migration run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	SearchTracks
	CreatePlaylist
	InsertTracks
	Finished
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case InsertTracks:
		return "insert_tracks"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

// sendProgress sends update without blocking; a full or nil channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingSourceUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Total:   total,
		Message: fmt.Sprintf("Fetching %d playlists from Spotify...", total),
	}
}

func fetchedRefUpdate(step, total int, ref models.PlaylistRef, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, ref)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, ref, err)
	}
	return ProgressUpdate{Phase: FetchSource, Step: step, Total: total, Message: msg}
}

func searchTracksUpdate(step, total int, title string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching %d tracks for %s...", step, total, tracks, title),
	}
}

func createPlaylistUpdate(step, total int, pl models.DestinationPlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Title, pl.ID),
		Data:    pl,
	}
}

func createFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func insertTracksUpdate(step, total int, title string, inserted, resolved int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %d/%d tracks inserted", step, total, title, inserted, resolved),
	}
}

func finishedUpdate(report *models.Report) ProgressUpdate {
	return ProgressUpdate{
		Phase: Finished,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("Migrated %d of %d playlists (%d tracks inserted, %d unresolved)",
			report.PlaylistsMigrated, report.PlaylistsRequested, report.TracksInserted, report.TracksUnresolved),
		Data: report,
	}
}
