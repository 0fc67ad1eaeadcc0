// Package tasks runs playlist migrations from Spotify to YouTube with real-time progress reporting.
//
// # Phases
//
// [Engine.Run] takes a [Request] (two credentials and the selected refs) through four phases:
//
//  1. Fetch: both credentials are checked locally and the source one remotely, then
//     [Fetcher.FetchAll] reads every ref's title and tracks on a bounded errgroup pool.
//     Refs that fail to read are dropped and counted; a credential failure cancels the batch.
//  2. Translate: every track name is resolved on the destination, in order within a playlist.
//  3. Write: one destination playlist is created per title and the resolved ids are inserted in
//     source order. Failures are counted per playlist and per track; nothing is rolled back.
//  4. Finish: both credentials are invalidated and a [models.Report] is returned, and recorded
//     through the optional [RunRecorder].
//
// Translate and Write process up to EngineOpts.PlaylistWorkers playlists at once. Every external
// call waits on a rate limiter and runs under a per-call timeout.
//
// # Progress Reporting
//
// Run sends [ProgressUpdate] values on an optional channel. Updates use select with default so a
// slow reader never blocks the migration; updates that do not fit are dropped.
//
// # Reset
//
// [Engine.Reset] deletes every destination playlist. It is never called by Run and refuses to act
// unless explicitly confirmed.
package tasks
