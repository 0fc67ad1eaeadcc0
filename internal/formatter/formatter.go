// package formatter renders migration reports and playlist listings as CSV, Markdown, JSON and tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
)

// FormatFor picks the export format from the file extension of path.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unsupported export extension %q (use .json, .csv or .md)", shared.ErrInvalidArgument, filepath.Ext(path))
	}
}

// Render encodes report in format.
func Render(report *models.Report, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return shared.MarshalJSON(report)
	case FormatCSV:
		return ReportToCSV(report)
	case FormatMarkdown:
		return ReportToMarkdown(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport writes report to path in the format implied by its extension.
func WriteReport(report *models.Report, path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	data, err := Render(report, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

var csvHeaders = []string{"Ref", "Title", "Status", "Destination ID", "Tracks", "Resolved", "Inserted", "Error"}

// ReportToCSV writes one row per playlist outcome.
func ReportToCSV(report *models.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range report.Playlists {
		record := []string{
			string(o.Ref),
			o.Title,
			string(o.Status),
			o.DestinationID,
			strconv.Itoa(o.TracksTotal),
			strconv.Itoa(o.TracksResolved),
			strconv.Itoa(o.TracksInserted),
			o.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportToMarkdown renders a summary section followed by a table of outcomes.
func ReportToMarkdown(report *models.Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Migration %s\n\n", report.RunID)
	fmt.Fprintf(&buf, "**Status**: %s\n", report.Status)
	if report.Error != "" {
		fmt.Fprintf(&buf, "**Error**: %s\n", report.Error)
	}
	fmt.Fprintf(&buf, "**Started**: %s\n", report.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&buf, "**Duration**: %s\n\n", report.Duration().Round(time.Millisecond))

	buf.WriteString("## Summary\n\n")
	fmt.Fprintf(&buf, "- Playlists: %d requested, %d fetched, %d dropped\n",
		report.PlaylistsRequested, report.PlaylistsFetched, report.PlaylistsDropped)
	fmt.Fprintf(&buf, "- Destination: %d migrated, %d failed, %d skipped\n",
		report.PlaylistsMigrated, report.PlaylistsFailed, report.PlaylistsSkipped)
	fmt.Fprintf(&buf, "- Tracks: %d resolved, %d unresolved, %d inserted, %d failed\n",
		report.TracksResolved, report.TracksUnresolved, report.TracksInserted, report.TracksFailed)
	if report.TitleCollisions > 0 {
		fmt.Fprintf(&buf, "- Title collisions: %d\n", report.TitleCollisions)
	}

	if len(report.Playlists) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("\n## Playlists\n\n")
	buf.WriteString("| Title | Status | Resolved | Inserted | Note |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, o := range report.Playlists {
		name := o.Title
		if name == "" {
			name = "`" + string(o.Ref) + "`"
		}
		fmt.Fprintf(&buf, "| %s | %s | %d/%d | %d | %s |\n",
			escapeCell(name), o.Status, o.TracksResolved, o.TracksTotal, o.TracksInserted, escapeCell(o.Error))
	}
	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
