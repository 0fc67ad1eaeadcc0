package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plmigrate/internal/shared"
	"golang.org/x/oauth2"
)

func quietLogger() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

// tokenServer fakes a provider token endpoint that accepts the code "good-code".
func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse token request: %v", err)
		}
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"access-1","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:3000/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://provider.test/authorize", TokenURL: tokenURL},
		Scopes:       []string{"read"},
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("applies middleware in order added", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("expected first,second,handler, got %s", got)
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("request logger keeps status", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(RequestLogger(quietLogger()))
		router.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

		if rec.Code != http.StatusTeapot {
			t.Errorf("expected 418, got %d", rec.Code)
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	ts := tokenServer(t)

	t.Run("exchanges code for token", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "state-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=good-code", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "Spotify connected") {
			t.Error("expected confirmation page to name the service")
		}

		result := <-h.Result()
		if result.Err != nil {
			t.Fatalf("unexpected error: %v", result.Err)
		}
		if result.Token.AccessToken != "access-1" || result.Token.RefreshToken != "refresh-1" {
			t.Errorf("unexpected token: %+v", result.Token)
		}
	})

	t.Run("state mismatch", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "state-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=other&code=good-code", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Err)
		}
	})

	t.Run("denial carries reason and description", func(t *testing.T) {
		h := NewOAuthHandler("YouTube", testConfig(ts.URL), "s")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied&error_description=user+said+no", nil))

		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}

		result := <-h.Result()
		var denied *AuthDenied
		if !errors.As(result.Err, &denied) {
			t.Fatalf("expected *AuthDenied, got %T", result.Err)
		}
		if denied.Reason != "access_denied" || denied.Description != "user said no" {
			t.Errorf("unexpected denial: %+v", denied)
		}
		if !errors.Is(result.Err, shared.ErrAuthFailed) {
			t.Error("expected denial to unwrap to ErrAuthFailed")
		}
	})

	t.Run("missing code", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "s")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); result.Err == nil {
			t.Error("expected error for missing code")
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "s")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=bad-code", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Err)
		}
	})

	t.Run("second callback rejected", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "s")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=good-code", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=good-code", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
	})

	t.Run("auth url carries state and offline access", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "xyz")
		u := h.AuthURL()
		for _, want := range []string{"state=xyz", "access_type=offline", "client_id=client", "scope=read"} {
			if !strings.Contains(u, want) {
				t.Errorf("expected %q in %s", want, u)
			}
		}
	})
}

func TestCallbackServer(t *testing.T) {
	ts := tokenServer(t)

	t.Run("returns token from callback", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "s")
		cs, err := StartCallbackServer("127.0.0.1:0", h, quietLogger())
		if err != nil {
			t.Fatalf("failed to start: %v", err)
		}

		go func() {
			resp, err := http.Get("http://" + cs.Addr() + "/callback?state=s&code=good-code")
			if err == nil {
				resp.Body.Close()
			}
		}()

		token, err := cs.Wait(context.Background(), 5*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "access-1" {
			t.Errorf("expected access-1, got %s", token.AccessToken)
		}
	})

	t.Run("times out", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "s")
		cs, err := StartCallbackServer("127.0.0.1:0", h, quietLogger())
		if err != nil {
			t.Fatalf("failed to start: %v", err)
		}

		if _, err := cs.Wait(context.Background(), 20*time.Millisecond); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "s")
		cs, err := StartCallbackServer("127.0.0.1:0", h, quietLogger())
		if err != nil {
			t.Fatalf("failed to start: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := cs.Wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("address in use", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", testConfig(ts.URL), "s")
		first, err := StartCallbackServer("127.0.0.1:0", h, quietLogger())
		if err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		defer first.shutdown()

		if _, err := StartCallbackServer(first.Addr(), h, quietLogger()); err == nil {
			t.Error("expected error binding a used address")
		}
	})
}
