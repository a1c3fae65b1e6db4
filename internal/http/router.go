package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/safeher/platform/internal/config"
	"github.com/safeher/platform/internal/http/middleware"
	"github.com/safeher/platform/internal/repo"
	"github.com/safeher/platform/internal/service"
)

// Deps groups everything the router needs.
type Deps struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Auth       *AuthHandler
	Women      *WomenHandler
	Police     *PoliceHandler
	Infra      *InfrastructureHandler
	Cyber      *CybersecurityHandler
	Emergency  *EmergencyHandler
	Admin      *AdminHandler
	SSE        *SSEHandler
	JWTService *service.AuthService
	Ready      func() error
}

// NewRouter assembles the full route tree.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.CORS(d.Config.AllowOrigins))

	publicLimiter := middleware.NewRateLimiter(
		d.Config.RateLimitPublic.RequestsPerSecond,
		d.Config.RateLimitPublic.Burst,
	)
	userLimiter := middleware.NewRateLimiter(
		d.Config.RateLimitAuth.RequestsPerSecond,
		d.Config.RateLimitAuth.Burst,
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "not ready")
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Group(func(pub chi.Router) {
		pub.Use(middleware.IPRateLimit(publicLimiter))

		pub.Post("/auth/login", d.Auth.Login)
		pub.Post("/auth/register/woman", d.Auth.RegisterWoman)
		pub.Post("/auth/register/community", d.Auth.RegisterCommunity)
		pub.Post("/auth/refresh", d.Auth.Refresh)
		pub.Post("/auth/logout", d.Auth.Logout)
	})

	r.Group(func(priv chi.Router) {
		priv.Use(middleware.Auth(d.JWTService.JWT()))
		priv.Use(middleware.UserRateLimit(userLimiter))

		priv.Get("/me", d.Auth.Me)

		priv.Route("/women", func(women chi.Router) {
			women.Use(middleware.RequireRoles(repo.RoleWoman))

			women.Get("/contacts", d.Women.ListContacts)
			women.Post("/contacts", d.Women.AddContact)
			women.Put("/contacts/{id}", d.Women.UpdateContact)
			women.Delete("/contacts/{id}", d.Women.DeleteContact)

			women.Post("/sos", d.Women.TriggerSOS)
			women.Get("/sos/active", d.Women.ActiveSOS)
			women.Post("/sos/{id}/location", d.Women.UpdateLocation)
			women.Put("/sos/{id}/cancel", d.Women.CancelSOS)

			women.Post("/fake-call", d.Women.FakeCall)
		})

		priv.Route("/police", func(police chi.Router) {
			police.Use(middleware.RequireRoles(repo.RolePolice, repo.RoleAdmin))

			police.Get("/sos-feed", d.Police.SOSFeed)
			police.Get("/sos/{id}", d.Police.SOSDetails)
			police.Put("/sos/{id}/resolve", d.Police.ResolveSOS)

			police.Post("/flag-zone", d.Police.MarkZone)
			police.Get("/flag-zones", d.Police.ListZones)
			police.Delete("/flag-zone/{id}", d.Police.UnmarkZone)

			police.Get("/chat", d.Police.ChatHistory)
			police.Post("/chat", d.Police.SendChat)

			police.Post("/issue", d.Police.ReportIssue)
		})

		priv.Route("/infrastructure", func(infra chi.Router) {
			infra.Use(middleware.RequireRoles(repo.RoleInfrastructure, repo.RoleAdmin))

			infra.Get("/issues", d.Infra.ListIssues)
			infra.Get("/my-issues", d.Infra.MyIssues)
			infra.Put("/issues/{id}/accept", d.Infra.AcceptIssue)
			infra.Put("/issues/{id}/complete", d.Infra.CompleteIssue)
		})

		priv.Route("/cybersecurity", func(cyber chi.Router) {
			cyber.Use(middleware.RequireRoles(repo.RoleCybersecurity, repo.RoleAdmin))

			cyber.Get("/monitoring", d.Cyber.Monitoring)
			cyber.Post("/flag-user", d.Cyber.FlagUser)
			cyber.Get("/flagged-users", d.Cyber.FlaggedUsers)
		})

		priv.Route("/emergency", func(emergency chi.Router) {
			emergency.Use(middleware.RequireRoles(repo.RoleEmergency, repo.RoleAdmin))

			emergency.Get("/sos-events", d.Emergency.SOSEvents)
			emergency.Get("/broadcast", d.Emergency.BroadcastHistory)
			emergency.Post("/broadcast", d.Emergency.Broadcast)
		})

		priv.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireRoles(repo.RoleAdmin))

			admin.Get("/pending-approvals", d.Admin.PendingApprovals)
			admin.Put("/approve/{id}", d.Admin.Approve)
			admin.Delete("/reject/{id}", d.Admin.Reject)
			admin.Put("/suspend/{id}", d.Admin.Suspend)
			admin.Put("/unsuspend/{id}", d.Admin.Unsuspend)
			admin.Get("/flagged-users", d.Admin.FlaggedUsers)
			admin.Get("/users", d.Admin.Users)
		})
	})

	// The SSE route is the only one that takes the token from the query
	// string; EventSource clients cannot set headers.
	r.Group(func(sse chi.Router) {
		sse.Use(middleware.AuthWithQueryToken(d.JWTService.JWT()))
		sse.Use(middleware.UserRateLimit(userLimiter))
		sse.Use(middleware.RequireRoles(repo.RolePolice, repo.RoleEmergency, repo.RoleAdmin))

		sse.Get("/sse/sos-updates", d.SSE.Stream)
	})

	return r
}
