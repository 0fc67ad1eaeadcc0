package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plmigrate/internal/shared"
	"golang.org/x/oauth2"
)

// AuthDenied is returned when the provider redirects back with an error instead of a code,
// e.g. because the user declined access.
type AuthDenied struct {
	Reason      string // "error" query parameter
	Description string // "error_description" query parameter, may be empty
}

func (e *AuthDenied) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authorization denied: %s", e.Reason)
	}
	return fmt.Sprintf("authorization denied: %s: %s", e.Reason, e.Description)
}

func (e *AuthDenied) Unwrap() error { return shared.ErrAuthFailed }

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	Err   error
}

// OAuthHandler handles OAuth2 callback requests for the authorization code flow of one service.
// Implements the [Handler] interface for registration with a [Router].
type OAuthHandler struct {
	label      string
	config     *oauth2.Config
	state      string
	resultChan chan OAuthResult
	once       sync.Once
	mu         sync.Mutex
	hit        bool
}

// NewOAuthHandler creates a callback handler for config. label names the service on the
// confirmation page. state must be the random value sent with the authorization URL.
func NewOAuthHandler(label string, config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		label:      label,
		config:     config,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// AuthURL returns the provider URL the user must visit. Offline access is requested so a
// refresh token is issued alongside the access token.
func (h *OAuthHandler) AuthURL() string {
	return h.config.AuthCodeURL(h.state, oauth2.AccessTypeOffline)
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP validates the state parameter, exchanges the authorization code for a token, and
// publishes the outcome on [OAuthHandler.Result]. Only the first callback is processed.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.Send(OAuthResult{Err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if reason := q.Get("error"); reason != "" {
		h.Send(OAuthResult{Err: &AuthDenied{Reason: reason, Description: q.Get("error_description")}})
		http.Error(w, "Authorization denied", http.StatusForbidden)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.Send(OAuthResult{Err: fmt.Errorf("%w: callback carried no code", shared.ErrAuthFailed)})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{Err: fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, successPage, html.EscapeString(h.label))
}

// Send publishes result on the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel that receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// CallbackServer is a short-lived HTTP server that hosts one [OAuthHandler].
type CallbackServer struct {
	handler *OAuthHandler
	srv     *http.Server
	ln      net.Listener
	errs    chan error
	logger  *log.Logger
}

// StartCallbackServer listens on addr and serves h until [CallbackServer.Wait] returns.
// The listener is bound before returning, so the authorization URL can be opened right away.
func StartCallbackServer(addr string, h *OAuthHandler, logger *log.Logger) (*CallbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(h)

	cs := &CallbackServer{
		handler: h,
		srv:     &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		ln:      ln,
		errs:    make(chan error, 1),
		logger:  logger,
	}

	go func() {
		if err := cs.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cs.errs <- err
		}
	}()
	logger.Info("OAuth callback server started", "addr", ln.Addr().String())
	return cs, nil
}

// Addr returns the bound listener address.
func (c *CallbackServer) Addr() string {
	return c.ln.Addr().String()
}

// Wait blocks until the callback delivers a token, the server fails, timeout passes, or ctx
// is done. The server is shut down before returning.
func (c *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (*oauth2.Token, error) {
	defer c.shutdown()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-c.handler.Result():
		if result.Err != nil {
			return nil, result.Err
		}
		if result.Token == nil {
			return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
		}
		return result.Token, nil
	case err := <-c.errs:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization not completed within %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *CallbackServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.srv.Shutdown(ctx); err != nil {
		c.logger.Warn("error shutting down callback server", "error", err)
	}
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #7D56F4; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ %s connected</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
