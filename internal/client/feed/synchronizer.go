// Package feed keeps a client-side mirror of the live SOS feed: a snapshot
// fetched over REST plus deltas applied from the SSE channel.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/safeher/platform/internal/feed"
)

var (
	// ErrAlreadySubscribed rejects a second Subscribe on the same synchronizer.
	ErrAlreadySubscribed = errors.New("feed: already subscribed")
	// ErrSnapshotFailed wraps a non-200 snapshot response.
	ErrSnapshotFailed = errors.New("feed: snapshot request failed")
	// ErrStreamFailed wraps a non-200 SSE response.
	ErrStreamFailed = errors.New("feed: stream request failed")
)

// Synchronizer mirrors the active-incidents collection of a responder
// dashboard. Load a snapshot first, then Subscribe for live deltas.
//
// The synchronizer never reconnects on its own: when the stream drops the
// Updates channel closes and the owner decides whether to subscribe again.
type Synchronizer struct {
	baseURL      string
	token        string
	snapshotPath string
	client       *http.Client

	mu        sync.Mutex
	incidents []feed.Incident

	subOnce   sync.Once
	unsubOnce sync.Once
	cancel    context.CancelFunc
	updates   chan feed.Event
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Synchronizer) { s.client = c }
}

// WithSnapshotPath points LoadSnapshot at the viewer's role-scoped feed
// endpoint, e.g. "/emergency/sos-events?status=ACTIVE" for emergency
// accounts. The default serves police viewers.
func WithSnapshotPath(path string) Option {
	return func(s *Synchronizer) { s.snapshotPath = path }
}

// NewSynchronizer creates a synchronizer for the API at baseURL,
// authenticating with the given access token.
func NewSynchronizer(baseURL, token string, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		snapshotPath: "/police/sos-feed",
		client:       &http.Client{Timeout: 30 * time.Second},
		updates:      make(chan feed.Event, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type snapshotEnvelope struct {
	Data []feed.Incident `json:"data"`
}

// LoadSnapshot fetches the active-incidents snapshot and replaces the whole
// in-memory collection with it. On any failure the collection is left
// untouched. A snapshot loaded while the stream is live wins over deltas
// already applied.
func (s *Synchronizer) LoadSnapshot(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+s.snapshotPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrSnapshotFailed, resp.StatusCode)
	}

	var env snapshotEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotFailed, err)
	}

	s.mu.Lock()
	s.incidents = env.Data
	s.mu.Unlock()
	return nil
}

// Incidents returns a copy of the current collection, newest first.
func (s *Synchronizer) Incidents() []feed.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]feed.Incident, len(s.incidents))
	copy(out, s.incidents)
	return out
}

// Updates delivers each event after it has been applied to the collection.
// The channel closes when the stream ends or Unsubscribe is called.
func (s *Synchronizer) Updates() <-chan feed.Event {
	return s.updates
}

// Subscribe opens the SSE connection and applies events in arrival order
// until the stream drops or Unsubscribe is called. The token travels as a
// query parameter: EventSource-style clients cannot set headers, so the
// server accepts it there for this endpoint only.
func (s *Synchronizer) Subscribe(ctx context.Context) error {
	err := ErrAlreadySubscribed
	s.subOnce.Do(func() {
		err = s.subscribe(ctx)
	})
	return err
}

func (s *Synchronizer) subscribe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	streamURL := s.baseURL + "/sse/sos-updates?token=" + url.QueryEscape(s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		cancel()
		close(s.updates)
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// SSE connections outlive any sane request timeout.
	client := &http.Client{Transport: s.client.Transport}

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		close(s.updates)
		return err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		close(s.updates)
		return fmt.Errorf("%w: status %d", ErrStreamFailed, resp.StatusCode)
	}

	go s.consume(resp)
	return nil
}

// Unsubscribe tears the stream down. Safe to call repeatedly, and bounded to
// this synchronizer: it never touches other subscriptions.
func (s *Synchronizer) Unsubscribe() {
	s.unsubOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *Synchronizer) consume(resp *http.Response) {
	defer resp.Body.Close()
	defer close(s.updates)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()

		// Blank line terminates one SSE frame.
		if line == "" {
			if data.Len() > 0 {
				s.handleFrame(data.Bytes())
				data.Reset()
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			data.WriteString(strings.TrimPrefix(payload, " "))
		}
	}
}

func (s *Synchronizer) handleFrame(raw []byte) {
	var event feed.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return
	}

	s.mu.Lock()
	s.apply(event)
	s.mu.Unlock()

	select {
	case s.updates <- event:
	default:
	}
}

// apply mutates the collection under s.mu, strictly in arrival order.
func (s *Synchronizer) apply(event feed.Event) {
	switch event.Type {
	case feed.EventNewSOS:
		var incident feed.Incident
		if err := json.Unmarshal(event.Data, &incident); err != nil {
			return
		}
		// Idempotent: a duplicate id is ignored, whatever its payload.
		for _, existing := range s.incidents {
			if existing.ID == incident.ID {
				return
			}
		}
		s.incidents = append([]feed.Incident{incident}, s.incidents...)

	case feed.EventLocationUpdate:
		var patch feed.LocationPatch
		if err := json.Unmarshal(event.Data, &patch); err != nil {
			return
		}
		// Unknown id is a no-op. Only position and battery change; identity
		// fields and list order stay as they are.
		for i := range s.incidents {
			if s.incidents[i].ID == patch.SOSID {
				s.incidents[i].Latitude = patch.Latitude
				s.incidents[i].Longitude = patch.Longitude
				s.incidents[i].Battery = patch.Battery
				return
			}
		}

	case feed.EventSOSResolved:
		var incident feed.Incident
		if err := json.Unmarshal(event.Data, &incident); err != nil {
			return
		}
		for i := range s.incidents {
			if s.incidents[i].ID == incident.ID {
				s.incidents[i].Status = incident.Status
				s.incidents[i].ResolvedAt = incident.ResolvedAt
				return
			}
		}
	}
}
