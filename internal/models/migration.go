package models

import "sort"

// PlaylistRef is an opaque source playlist id.
type PlaylistRef string

// PlaylistBundle is the title and ordered track names read for one ref.
type PlaylistBundle struct {
	Ref    PlaylistRef
	Title  string
	Tracks []string
}

// MigrationSet maps a playlist title to its ordered track names.
type MigrationSet map[string][]string

// Titles returns the keys in lexical order.
func (m MigrationSet) Titles() []string {
	titles := make([]string, 0, len(m))
	for t := range m {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// TrackCount is the total number of track names across all playlists.
func (m MigrationSet) TrackCount() int {
	n := 0
	for _, tracks := range m {
		n += len(tracks)
	}
	return n
}

// TrackMatch is the outcome of searching the destination for one track name.
type TrackMatch struct {
	Query    string
	MediaID  string
	Resolved bool
	Err      error
}

// DestinationPlaylist is a playlist created on the destination service.
type DestinationPlaylist struct {
	ID    string
	Title string
}
