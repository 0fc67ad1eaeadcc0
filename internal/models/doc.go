// Package models defines the domain entities of a playlist migration run.
//
// The package contains three groups of types:
//
// 1. Session values handed to the migration core
//   - [Credential] : bearer token for one service, invalidated when a run finishes
//   - [PlaylistRef] : opaque source playlist id
//
// 2. Intermediate values built during a run
//   - [PlaylistBundle] : title and ordered track names read for one ref
//   - [MigrationSet] : title to track names, read-only once assembled
//   - [TrackMatch] : result of resolving one track name on the destination
//   - [DestinationPlaylist] : handle of a playlist created on the destination
//
// 3. Results
//   - [Report] : counts and per-playlist outcomes of a run; implements [Model] so it can be persisted
//   - [PlaylistOutcome] : what happened to one playlist
//
// [Playlist] is the listing DTO returned by both services for browsing and selection.
package models
