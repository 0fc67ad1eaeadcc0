// Package services implements the clients for both sides of a migration.
//
// # Source
//
// [SpotifyService] reads playlists from the Spotify Web API through [APIClient], a small bearer-token
// JSON transport that keeps the raw status and body of every failed call. Pagination follows the
// next links Spotify returns, restricted to the API host.
//
// # Destination
//
// [YouTubeService] wraps the generated google.golang.org/api/youtube/v3 client. A client is built per
// credential with a static token source; the API key, when configured, is sent as the key query
// parameter on each call.
//
// # Error Handling
//
// Non-2xx responses from either side become [*UpstreamError]:
//   - every UpstreamError matches [shared.ErrAPIRequest]
//   - a 401 also matches [shared.ErrCredentialInvalid], which aborts a migration run
//   - a search with zero items is reported as [shared.ErrTrackNotFound]
//
// # OAuth
//
// [OAuthConfig] returns the authorization-code settings used by the auth command for each service.
package services
