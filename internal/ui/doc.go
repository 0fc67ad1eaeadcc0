// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through a migration in five views:
//  1. [LoadingView] : Fetch the Spotify playlists
//  2. [SelectView] : Browse and multi-select playlists
//  3. [ConfirmView] : Confirm the selection
//  4. [MigrateView] : Follow progress updates from the migration engine
//  5. [ResultView] : Show the run report
//
// The [Model] talks to the rest of the program only through a [Backend], and receives data through
// the Msg union type. Progress updates arrive on a buffered channel that is read one update per command.
//
// [RenderReport] is also used by the migrate command to print a styled summary.
package ui
