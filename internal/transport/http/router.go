package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-verify-api/internal/application/verification"
	"github.com/go-verify-api/internal/config"
	"github.com/go-verify-api/internal/domain"
	"github.com/go-verify-api/internal/transport/http/handler"
	appmiddleware "github.com/go-verify-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to the public verification endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	limiter := verification.NewRateLimiter(deps.Store, deps.Cache, deps.Clock, cfg.Limits)
	verifySvc := verification.NewService(deps.Store, limiter, deps.PushGateway, deps.SMSGateway, deps.Clock, cfg.AppEnv, cfg.Limits.CodeTTL)
	noticeSender := verification.NewNoticeSender(limiter, deps.PushGateway, deps.SMSGateway)

	healthH := handler.NewHealthHandler()
	verifyH := handler.NewVerificationHandler(verifySvc)
	noticeH := handler.NewNoticeHandler(noticeSender)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/verifications", verifyH.Create)
		r.With(sensitiveRL.Limit).Post("/verifications/confirm", verifyH.Confirm)
		r.With(sensitiveRL.Limit).Post("/verifications/verify", verifyH.Verify)
		r.Post("/verifications/{id}/activate", verifyH.Activate)

		// ── Operator routes ──────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(domain.RoleOperator))

			r.Get("/verifications/{id}", verifyH.Get)
			r.Post("/notices", noticeH.Send)
		})
	})

	return r
}
