// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/plmigrate/internal/models"
)

// NoExpiry is the zero expiry used for credentials that never expire.
var NoExpiry time.Time

// FakeSource is an in-memory source service keyed by playlist ref.
type FakeSource struct {
	Titles      map[models.PlaylistRef]string
	Tracks      map[models.PlaylistRef][]string
	TitleErrs   map[models.PlaylistRef]error
	TrackErrs   map[models.PlaylistRef]error
	ValidateErr error
	// Delay is slept (or until ctx ends) before each fetch.
	Delay time.Duration

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (f *FakeSource) Validate(ctx context.Context, cred *models.Credential) error {
	return f.ValidateErr
}

func (f *FakeSource) FetchTitle(ctx context.Context, cred *models.Credential, ref models.PlaylistRef) (string, error) {
	defer f.enter()()
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	if err := f.TitleErrs[ref]; err != nil {
		return "", err
	}
	title, ok := f.Titles[ref]
	if !ok {
		return "", fmt.Errorf("no title for %s", ref)
	}
	return title, nil
}

func (f *FakeSource) FetchTracks(ctx context.Context, cred *models.Credential, ref models.PlaylistRef) ([]string, error) {
	defer f.enter()()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err := f.TrackErrs[ref]; err != nil {
		return nil, err
	}
	tracks, ok := f.Tracks[ref]
	if !ok {
		return nil, fmt.Errorf("no tracks for %s", ref)
	}
	return append([]string{}, tracks...), nil
}

// Calls is the number of fetch calls made.
func (f *FakeSource) Calls() int { return int(f.calls.Load()) }

// Peak is the highest number of fetch calls observed running at once.
func (f *FakeSource) Peak() int { return int(f.peak.Load()) }

func (f *FakeSource) enter() func() {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *FakeSource) wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(f.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FakeDestination is an in-memory destination with a fixed search catalog.
type FakeDestination struct {
	Catalog     map[string]string // track name to video id
	ResolveErrs map[string]error
	CreateErrs  map[string]error
	InsertErrs  map[string]error // keyed by video id
	Owned       []string         // ids returned by ListPlaylists
	ListErr     error
	DeleteErrs  map[string]error // keyed by playlist id
	// Hang blocks ListPlaylists and DeletePlaylist until ctx ends.
	Hang bool

	mu       sync.Mutex
	next     int
	created  []models.DestinationPlaylist
	inserted map[string][]string
	searches int
	deleted  []string
}

func (f *FakeDestination) Resolve(ctx context.Context, cred *models.Credential, name string) models.TrackMatch {
	f.mu.Lock()
	f.searches++
	f.mu.Unlock()

	match := models.TrackMatch{Query: name}
	if err := f.ResolveErrs[name]; err != nil {
		match.Err = err
		return match
	}
	id, ok := f.Catalog[name]
	if !ok {
		match.Err = fmt.Errorf("not in catalog: %q", name)
		return match
	}
	match.MediaID = id
	match.Resolved = true
	return match
}

func (f *FakeDestination) CreatePlaylist(ctx context.Context, cred *models.Credential, title string) (models.DestinationPlaylist, error) {
	if err := f.CreateErrs[title]; err != nil {
		return models.DestinationPlaylist{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	pl := models.DestinationPlaylist{ID: fmt.Sprintf("yt-%d", f.next), Title: title}
	f.created = append(f.created, pl)
	return pl, nil
}

func (f *FakeDestination) InsertItem(ctx context.Context, cred *models.Credential, playlistID, mediaID string) error {
	if err := f.InsertErrs[mediaID]; err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inserted == nil {
		f.inserted = make(map[string][]string)
	}
	f.inserted[playlistID] = append(f.inserted[playlistID], mediaID)
	return nil
}

func (f *FakeDestination) ListPlaylists(ctx context.Context, cred *models.Credential) ([]models.Playlist, error) {
	if f.Hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	playlists := make([]models.Playlist, len(f.Owned))
	for i, id := range f.Owned {
		playlists[i] = models.Playlist{ID: id}
	}
	return playlists, nil
}

func (f *FakeDestination) DeletePlaylist(ctx context.Context, cred *models.Credential, id string) error {
	if f.Hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := f.DeleteErrs[id]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

// Deleted returns the ids removed by DeletePlaylist, in call order.
func (f *FakeDestination) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.deleted...)
}

// Created returns the titles of created playlists, sorted.
func (f *FakeDestination) Created() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := make([]string, len(f.created))
	for i, p := range f.created {
		titles[i] = p.Title
	}
	sort.Strings(titles)
	return titles
}

// Inserted returns the video ids inserted into the playlist created with title.
func (f *FakeDestination) Inserted(title string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.created {
		if p.Title == title {
			return append([]string{}, f.inserted[p.ID]...)
		}
	}
	return nil
}

// Searches is the number of Resolve calls made.
func (f *FakeDestination) Searches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searches
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
