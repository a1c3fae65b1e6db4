package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/safeher/platform/internal/auth"
	"github.com/safeher/platform/internal/config"
	"github.com/safeher/platform/internal/docstore"
	"github.com/safeher/platform/internal/feed"
	"github.com/safeher/platform/internal/repo"
	"github.com/safeher/platform/internal/service"
)

type routerAuthRepo struct {
	users map[uuid.UUID]repo.User
}

func (s *routerAuthRepo) CreateUser(ctx context.Context, u repo.User) (repo.User, error) {
	s.users[u.ID] = u
	return u, nil
}

func (s *routerAuthRepo) GetUserByEmail(ctx context.Context, email string) (repo.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return repo.User{}, repo.ErrNotFound
}

func (s *routerAuthRepo) GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return repo.User{}, repo.ErrNotFound
}

func (s *routerAuthRepo) GetUserByPhone(ctx context.Context, phone string) (repo.User, error) {
	return repo.User{}, repo.ErrNotFound
}

func (s *routerAuthRepo) InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.RefreshToken, error) {
	return repo.RefreshToken{ID: arg.ID, Subject: arg.Subject, TokenHash: arg.TokenHash}, nil
}

func (s *routerAuthRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.RefreshToken, error) {
	return repo.RefreshToken{}, repo.ErrNotFound
}

func (s *routerAuthRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return nil
}

func (s *routerAuthRepo) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error {
	return nil
}

type routerRedis struct{}

func (routerRedis) Set(ctx context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (routerRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	cmd.SetErr(redis.Nil)
	return cmd
}

func (routerRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(0)
	return cmd
}

type routerSOSRepo struct {
	active []repo.SOSEvent
}

func (s *routerSOSRepo) CreateSOSEvent(ctx context.Context, womanID uuid.UUID, lat, lng float64, battery int) (repo.SOSEvent, error) {
	return repo.SOSEvent{}, repo.ErrNotFound
}

func (s *routerSOSRepo) GetSOSEvent(ctx context.Context, id uuid.UUID) (repo.SOSEvent, error) {
	return repo.SOSEvent{}, repo.ErrNotFound
}

func (s *routerSOSRepo) ListActiveSOSEvents(ctx context.Context) ([]repo.SOSEvent, error) {
	return s.active, nil
}

func (s *routerSOSRepo) ListSOSEvents(ctx context.Context) ([]repo.SOSEvent, error) {
	return s.active, nil
}

func (s *routerSOSRepo) GetActiveSOSByWoman(ctx context.Context, womanID uuid.UUID) (repo.SOSEvent, error) {
	return repo.SOSEvent{}, repo.ErrNotFound
}

func (s *routerSOSRepo) CloseSOSEvent(ctx context.Context, id uuid.UUID, status string, at time.Time) error {
	return repo.ErrNotFound
}

func (s *routerSOSRepo) InsertLocationUpdate(ctx context.Context, sosID uuid.UUID, lat, lng float64, battery int) (repo.LocationUpdate, error) {
	return repo.LocationUpdate{}, repo.ErrNotFound
}

func (s *routerSOSRepo) ListLocationUpdates(ctx context.Context, sosID uuid.UUID) ([]repo.LocationUpdate, error) {
	return nil, nil
}

func (s *routerSOSRepo) ListContactsByWoman(ctx context.Context, womanID uuid.UUID) ([]repo.EmergencyContact, error) {
	return nil, nil
}

func (s *routerSOSRepo) IncrementSOSCount(ctx context.Context, womanID uuid.UUID) error {
	return nil
}

type routerFixture struct {
	handler http.Handler
	jwt     *auth.JWTManager
	hub     *feed.Hub
	repo    *routerAuthRepo
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	cfg := &config.Config{
		AllowOrigins:    []string{"*"},
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		SSEHeartbeat:    50 * time.Millisecond,
	}

	jwtMgr := auth.NewJWTManager(strings.Repeat("a", 32), time.Minute)
	authRepo := &routerAuthRepo{users: make(map[uuid.UUID]repo.User)}
	authService := service.NewAuthService(authRepo, routerRedis{}, jwtMgr, docstore.NoopStore{}, nil, time.Hour)

	hub := feed.NewHub(nil, zerolog.Nop())
	sosService := service.NewSOSService(&routerSOSRepo{}, hub, nil)
	chatService := service.NewChatService(nil)
	issueService := service.NewIssueService(nil)
	moderationService := service.NewModerationService(nil)
	zoneService := service.NewZoneService(nil)
	contactService := service.NewContactService(nil)

	handler := NewRouter(Deps{
		Config:     cfg,
		Logger:     zerolog.Nop(),
		Auth:       NewAuthHandler(authService),
		Women:      NewWomenHandler(contactService, sosService, moderationService),
		Police:     NewPoliceHandler(sosService, zoneService, chatService, issueService),
		Infra:      NewInfrastructureHandler(issueService),
		Cyber:      NewCybersecurityHandler(moderationService),
		Emergency:  NewEmergencyHandler(sosService, chatService),
		Admin:      NewAdminHandler(moderationService),
		SSE:        NewSSEHandler(hub, cfg.SSEHeartbeat, zerolog.Nop()),
		JWTService: authService,
	})

	return &routerFixture{handler: handler, jwt: jwtMgr, hub: hub, repo: authRepo}
}

func (f *routerFixture) tokenFor(t *testing.T, role string) string {
	t.Helper()

	user := repo.User{
		ID:       uuid.New(),
		Name:     "Test User",
		Email:    uuid.NewString() + "@example.com",
		Role:     role,
		Approved: true,
	}
	f.repo.users[user.ID] = user

	token, _, err := f.jwt.GenerateAccessToken(user.ID.String(), role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestRouterHealth(t *testing.T) {
	f := newRouterFixture(t)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterRequiresAuthOnPrivateRoutes(t *testing.T) {
	f := newRouterFixture(t)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "AUTH" {
		t.Fatalf("expected AUTH error code, got %q", body.Error.Code)
	}
}

func TestRouterRejectsQueryTokenOutsideSSE(t *testing.T) {
	f := newRouterFixture(t)
	token := f.tokenFor(t, repo.RolePolice)

	// Only the SSE route reads the token from the query string.
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for query token on /me, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/police/sos-feed?token="+token, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for query token on /police/sos-feed, got %d", rec.Code)
	}
}

func TestRouterEnforcesRoleScopes(t *testing.T) {
	f := newRouterFixture(t)
	womanToken := f.tokenFor(t, repo.RoleWoman)

	req := httptest.NewRequest(http.MethodGet, "/police/sos-feed", nil)
	req.Header.Set("Authorization", "Bearer "+womanToken)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for WOMAN on police route, got %d", rec.Code)
	}

	policeToken := f.tokenFor(t, repo.RolePolice)
	req = httptest.NewRequest(http.MethodGet, "/police/sos-feed", nil)
	req.Header.Set("Authorization", "Bearer "+policeToken)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for POLICE on police route, got %d", rec.Code)
	}
}

func TestRouterMeReturnsIdentity(t *testing.T) {
	f := newRouterFixture(t)
	token := f.tokenFor(t, repo.RoleEmergency)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data service.Identity `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Role != repo.RoleEmergency {
		t.Fatalf("expected EMERGENCY identity, got %s", body.Data.Role)
	}
}

func TestRouterSSEStreamDeliversEvents(t *testing.T) {
	f := newRouterFixture(t)
	token := f.tokenFor(t, repo.RolePolice)

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sse/sos-updates?token=" + token)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}

	event, err := feed.NewIncidentEvent(feed.EventNewSOS, feed.Incident{ID: "sos-1", Status: "ACTIVE"})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	// The subscription registers asynchronously with the stream handler.
	deadline := time.After(2 * time.Second)
	done := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data:") && strings.Contains(line, "sos-1") {
				close(done)
				return
			}
		}
	}()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatal("did not receive SSE event in time")
		case <-ticker.C:
			_ = f.hub.Publish(context.Background(), event)
		}
	}
}

func TestRouterSSERejectsWomanRole(t *testing.T) {
	f := newRouterFixture(t)
	token := f.tokenFor(t, repo.RoleWoman)

	req := httptest.NewRequest(http.MethodGet, "/sse/sos-updates?token="+token, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
