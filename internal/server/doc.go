// Package server provides HTTP routing, middleware, and the OAuth callback used by the auth commands.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// method-qualified patterns on an [http.ServeMux]; [Middleware] added first wraps outermost.
// [RequestLogger] logs each request without its query string.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback for any provider described by an
// [oauth2.Config]. It validates the state parameter, exchanges the code for a token, and sends
// the result through a channel. Only the first callback is processed.
//
// When the provider redirects back with an error parameter the result carries an
// [*AuthDenied] holding the reason and description, which callers surface to the user.
//
// [CallbackServer] hosts a handler on the configured address (localhost:3000 by default) for
// the duration of a single authorization and shuts down once a result arrives.
package server
