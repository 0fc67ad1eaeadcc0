package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/plmigrate/internal/models"
)

// RenderReport formats report as styled text for the terminal.
func RenderReport(report *models.Report) string {
	var b strings.Builder

	if report.Status == models.RunAborted {
		b.WriteString(styles.err.Render("✗ Migration aborted"))
	} else {
		b.WriteString(styles.ok.Render("✓ Migration complete"))
	}
	b.WriteString("\n\n")

	summary := fmt.Sprintf(
		"Playlists  %d requested · %d fetched · %d migrated\nTracks     %d resolved · %d unresolved · %d inserted\nDuration   %s",
		report.PlaylistsRequested, report.PlaylistsFetched, report.PlaylistsMigrated,
		report.TracksResolved, report.TracksUnresolved, report.TracksInserted,
		report.Duration().Round(time.Millisecond),
	)
	b.WriteString(styles.box.Render(summary))

	var problems []string
	for _, o := range report.Playlists {
		var line string
		switch o.Status {
		case models.OutcomeDropped:
			line = fmt.Sprintf("  • %s dropped: %s", o.Ref, o.Error)
		case models.OutcomeFailed:
			line = fmt.Sprintf("  • %s failed: %s", o.Title, o.Error)
		case models.OutcomeSkipped:
			line = fmt.Sprintf("  • %s skipped: no tracks resolved", o.Title)
		default:
			continue
		}
		problems = append(problems, styles.outcome(o.Status).Render(line))
	}
	if report.TracksFailed > 0 {
		problems = append(problems, styles.warn.Render(fmt.Sprintf("  • %d resolved tracks could not be inserted", report.TracksFailed)))
	}
	if report.TitleCollisions > 0 {
		problems = append(problems, styles.warn.Render(fmt.Sprintf("  • %d playlists shared a title with another selection", report.TitleCollisions)))
	}

	if len(problems) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(problems, "\n"))
	}
	if report.Error != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.err.Render(report.Error))
	}
	return b.String()
}
