package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
	"github.com/aussiebroadwan/otpgate/pkg/validx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	_ "github.com/aussiebroadwan/otpgate/api/otp" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	validator    *validx.Validator

	store            store.Store
	ChallengeService *service.ChallengeService
}

// NewRouter builds a router with request logging and, when allowedOrigins is
// non-empty, CORS.
func NewRouter(buildVersion string, st store.Store, logger *slog.Logger, allowedOrigins []string) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		validator:    validx.MustNew(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	if len(allowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Accept", slogx.RequestIDHeader},
			ExposedHeaders: []string{slogx.RequestIDHeader, "Retry-After"},
			MaxAge:         600,
		})
		r.middlewares = append(r.middlewares, c.Handler)
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerChallenges()
	r.registerSystem()

	r.Mux.Handle("/swagger/",
		httpx.Chain(httpSwagger.Handler(),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			otpgate One-Time Code Service API
//	@version		0.1.0
//	@description	Issues short-lived 6-digit codes over email or SMS and verifies them.
//	@description
//	@description	Each challenge is valid for 5 minutes and allows 3 attempts. A resend replaces the challenge with a new one.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/otpgate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerChallenges() {
	h := &ChallengeHandler{
		ChallengeService: r.ChallengeService,
		Validator:        r.validator,
	}

	// POST /challenges - strict limit per IP and target so one address
	// cannot be flooded with codes
	r.Mux.Handle("POST /v1/otp/challenges",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email", "phone"),
		),
	)

	// POST /verify - strict limit per IP and challenge (brute force of codes)
	r.Mux.Handle("POST /v1/otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "challenge_id"),
		),
	)

	// POST /resend - strict limit per IP and challenge
	r.Mux.Handle("POST /v1/otp/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResend),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "challenge_id"),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics",
		httpx.Chain(promhttp.Handler(),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
