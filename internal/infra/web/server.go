package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/infra/logging"
	"gym-membership-backend/internal/infra/metrics"
	"gym-membership-backend/internal/infra/redis"
	"gym-membership-backend/internal/usecase"
)

type Server struct {
	typeUC       usecase.MembershipTypeUseCase
	membershipUC usecase.MembershipUseCase
	paymentUC    usecase.PaymentUseCase
	attendanceUC usecase.AttendanceUseCase

	auth          *AuthManager
	apiKey        string
	successURL    string
	webhookSecret string
	rc            redis.RedisClient // nil disables the webhook replay guard
	log           *zerolog.Logger
}

type Options struct {
	APIKey        string
	SuccessURL    string
	WebhookSecret string
	Redis         redis.RedisClient
}

func NewServer(
	typeUC usecase.MembershipTypeUseCase,
	membershipUC usecase.MembershipUseCase,
	paymentUC usecase.PaymentUseCase,
	attendanceUC usecase.AttendanceUseCase,
	auth *AuthManager,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		typeUC:        typeUC,
		membershipUC:  membershipUC,
		paymentUC:     paymentUC,
		attendanceUC:  attendanceUC,
		auth:          auth,
		apiKey:        opts.APIKey,
		successURL:    opts.SuccessURL,
		webhookSecret: opts.WebhookSecret,
		rc:            opts.Redis,
		log:           logger,
	}
}

// Router builds the full HTTP surface: public payment endpoints, the
// admin-guarded management API, and operational endpoints.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.requestLogger)
	r.Use(instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.loginHandler)
		r.Post("/auth/logout", s.logoutHandler)

		// Gateway-facing endpoints carry their own protection: the callback
		// re-verifies with the gateway; the webhook is signature-checked.
		r.Get("/payments/callback", s.paymentsCallbackHandler)
		r.With(s.verifyWebhookSignature).Post("/payments/webhook", s.paymentsWebhookHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Route("/membership-types", func(r chi.Router) {
				r.Get("/", s.typesListHandler)
				r.Post("/", s.typesCreateHandler)
				r.Get("/{id}", s.typesGetHandler)
				r.Put("/{id}", s.typesUpdateHandler)
				r.Delete("/{id}", s.typesDeleteHandler)
			})

			r.Route("/memberships", func(r chi.Router) {
				r.Get("/", s.membershipsListHandler)
				r.Post("/", s.membershipsCreateHandler)
				r.Get("/{id}", s.membershipsGetHandler)
				r.Put("/{id}", s.membershipsUpdateHandler)
				r.Delete("/{id}", s.membershipsDeleteHandler)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", s.paymentsListHandler)
				r.Post("/initiate", s.paymentsInitiateHandler)
				r.Get("/{id}", s.paymentsGetHandler)
				r.Post("/{id}/refund", s.paymentsRefundHandler)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", s.attendanceCheckInHandler)
				r.Post("/check-out", s.attendanceCheckOutHandler)
				r.Post("/absent", s.attendanceAbsentHandler)
				r.Post("/bulk", s.attendanceBulkHandler)
				r.Get("/roster", s.attendanceRosterHandler)
				r.Get("/stats", s.attendanceStatsHandler)
				r.Delete("/{id}", s.attendanceDeleteHandler)
			})

			r.Route("/users/{id}", func(r chi.Router) {
				r.Get("/memberships", s.userMembershipsHandler)
				r.Get("/membership-status", s.userMembershipStatusHandler)
				r.Get("/payments", s.userPaymentsHandler)
				r.Get("/attendance", s.userAttendanceHandler)
			})
		})
	})

	return r
}

// requestLogger threads the request id into the context so every log line
// below carries it, and emits one completion line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.With(ctx, s.log).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

// instrument records request counts and latency per route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(route, r.Method, ww.Status(), time.Since(start))
	})
}
