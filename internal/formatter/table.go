package formatter

import (
	"strconv"
	"time"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// PlaylistsTable lists playlists with their ids so they can be passed to migrate --id.
func PlaylistsTable(playlists []models.Playlist) string {
	rows := make([][]string, len(playlists))
	for i, p := range playlists {
		visibility := "private"
		if p.Public {
			visibility = "public"
		}
		rows[i] = []string{strconv.Itoa(i + 1), p.Name, p.ID, strconv.Itoa(p.TrackCount), visibility}
	}
	return renderTable(
		[]string{"#", "Name", "ID", "Tracks", "Visibility"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// OutcomesTable renders one row per playlist outcome of report.
func OutcomesTable(report *models.Report) string {
	rows := make([][]string, len(report.Playlists))
	for i, o := range report.Playlists {
		name := o.Title
		if name == "" {
			name = string(o.Ref)
		}
		rows[i] = []string{
			name,
			string(o.Status),
			strconv.Itoa(o.TracksTotal),
			strconv.Itoa(o.TracksResolved),
			strconv.Itoa(o.TracksInserted),
			o.Error,
		}
	}
	return renderTable(
		[]string{"Playlist", "Status", "Tracks", "Resolved", "Inserted", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

// RunsTable summarizes stored runs, newest first as given.
func RunsTable(runs []*models.Report) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			string(r.Status),
			strconv.Itoa(r.PlaylistsMigrated) + "/" + strconv.Itoa(r.PlaylistsRequested),
			strconv.Itoa(r.TracksInserted),
			strconv.Itoa(r.TracksUnresolved),
			r.Duration().Round(time.Second).String(),
		}
	}
	return renderTable(
		[]string{"Run", "Started", "Status", "Playlists", "Inserted", "Unresolved", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}
