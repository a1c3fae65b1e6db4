// Command console is a terminal client for responders: it logs in, keeps the
// session on disk, mirrors the live SOS feed and resolves incidents.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	clientfeed "github.com/safeher/platform/internal/client/feed"
	"github.com/safeher/platform/internal/client/session"
	"github.com/safeher/platform/internal/feed"
	"github.com/safeher/platform/internal/repo"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := run(logger, os.Args[1:]); err != nil {
		logger.Fatal().Err(err).Msg("console terminated")
	}
}

func run(logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("console", flag.ExitOnError)
	baseURL := fs.String("api", "http://localhost:8080", "API base URL")
	sessionPath := fs.String("session", defaultSessionPath(), "session file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("usage: console [flags] login <email> | watch | resolve <sos-id> | logout")
	}

	store := session.NewFileStore(*sessionPath)

	switch rest[0] {
	case "login":
		if len(rest) < 3 {
			return errors.New("usage: console login <email> <password>")
		}
		return login(*baseURL, store, rest[1], rest[2])
	case "logout":
		return store.Clear()
	case "watch":
		return watch(logger, *baseURL, store)
	case "resolve":
		if len(rest) < 2 {
			return errors.New("usage: console resolve <sos-id>")
		}
		return resolve(*baseURL, store, rest[1])
	default:
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".safeher-session.json"
	}
	return filepath.Join(home, ".safeher", "session.json")
}

type loginResponse struct {
	Data struct {
		AccessToken  string           `json:"access_token"`
		RefreshToken string           `json:"refresh_token"`
		User         session.Identity `json:"user"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func login(baseURL string, store *session.FileStore, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}

	resp, err := http.Post(strings.TrimRight(baseURL, "/")+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return fmt.Errorf("login failed: %s", parsed.Error.Message)
		}
		return fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	sess := &session.Session{
		AccessToken:  parsed.Data.AccessToken,
		RefreshToken: parsed.Data.RefreshToken,
		Identity:     parsed.Data.User,
	}
	if err := store.Save(sess); err != nil {
		return err
	}

	fmt.Printf("logged in as %s (%s)\n", sess.Identity.Name, sess.Identity.Role)
	return nil
}

// gatedSession loads the stored session and runs it through the same gate a
// dashboard screen would.
func gatedSession(store *session.FileStore, allowedRoles ...string) (*session.Session, error) {
	sess, err := store.Load()
	if err != nil {
		return nil, err
	}

	decision := session.Evaluate(allowedRoles, sess, false)
	switch decision.Action {
	case session.ActionRender:
		return sess, nil
	case session.ActionRedirect:
		if decision.Target == session.LoginPath {
			return nil, errors.New("not logged in: run `console login` first")
		}
		return nil, fmt.Errorf("role %s has no access here (its home is %s)", sess.Role(), decision.Target)
	default:
		return nil, errors.New("session not ready")
	}
}

func watch(logger zerolog.Logger, baseURL string, store *session.FileStore) error {
	sess, err := gatedSession(store, repo.RolePolice, repo.RoleEmergency, repo.RoleAdmin)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sync := clientfeed.NewSynchronizer(baseURL, sess.AccessToken,
		clientfeed.WithSnapshotPath(snapshotPathFor(sess.Role())))
	if err := sync.LoadSnapshot(ctx); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	for _, incident := range sync.Incidents() {
		printIncident(incident)
	}

	if err := sync.Subscribe(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sync.Unsubscribe()

	logger.Info().Msg("watching live feed, ctrl-c to stop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, open := <-sync.Updates():
			if !open {
				logger.Warn().Msg("stream closed, run watch again to reconnect")
				return nil
			}
			logger.Info().Str("type", event.Type).Msg("event")
			for _, incident := range sync.Incidents() {
				printIncident(incident)
			}
		}
	}
}

// snapshotPathFor maps the viewer's role to its active-feed endpoint.
func snapshotPathFor(role string) string {
	if role == repo.RoleEmergency {
		return "/emergency/sos-events?status=ACTIVE"
	}
	return "/police/sos-feed"
}

func printIncident(i feed.Incident) {
	resolved := ""
	if i.ResolvedAt != nil {
		resolved = " resolved " + i.ResolvedAt.Format(time.RFC3339)
	}
	fmt.Printf("%s  %-11s %s  (%.5f, %.5f) battery %d%%%s\n",
		i.ID, i.Status, i.WomanName, i.Latitude, i.Longitude, i.Battery, resolved)
}

func resolve(baseURL string, store *session.FileStore, sosID string) error {
	sess, err := gatedSession(store, repo.RolePolice, repo.RoleAdmin)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/police/sos/%s/resolve", strings.TrimRight(baseURL, "/"), sosID)
	req, err := http.NewRequest(http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("resolve failed: status %d", resp.StatusCode)
	}
	fmt.Println("resolved", sosID)
	return nil
}
