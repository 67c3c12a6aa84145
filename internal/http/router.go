package http

import (
	"net/http"

	"dayplan/internal/auth"
	"dayplan/internal/config"
	"dayplan/internal/http/handler"
	mw "dayplan/internal/http/middleware"
	"dayplan/internal/planner"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	health := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
	r.Get("/health", health)
	r.Head("/health", health)

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	svc := &planner.Service{DB: db}
	syncH := &handler.SyncHandler{Svc: svc}
	plannerH := &handler.PlannerHandler{Svc: svc}
	goalsH := &handler.GoalsHandler{Svc: svc}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/sync", syncH.Sync)
		r.Get("/planner/{userId}", plannerH.Get)

		r.Get("/goals/{userId}", goalsH.Get)
		r.Put("/goals/{userId}", goalsH.Update)
	})

	return r
}
