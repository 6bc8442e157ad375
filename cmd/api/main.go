package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	api "github.com/mapleprep/mapleprep/internal/api/http"
	"github.com/mapleprep/mapleprep/internal/auth"
	authmw "github.com/mapleprep/mapleprep/internal/auth/middleware"
	"github.com/mapleprep/mapleprep/internal/config"
	"github.com/mapleprep/mapleprep/internal/db"
	"github.com/mapleprep/mapleprep/internal/events"
	"github.com/mapleprep/mapleprep/internal/quiz"
	"github.com/mapleprep/mapleprep/internal/rbac"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Attempt counters (authenticated users) ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	counters := quiz.NewRedisCounter(rdb)

	// --- Domain wiring ---
	store := quiz.NewSQLStore(dbh)
	engine := quiz.NewEngine(store)
	gate := quiz.NewGate(store, counters)
	coord := quiz.NewCoordinator(store, store, counters, events.NewRepo(dbh))

	authSvc := authmw.NewAuthService(cfg.AuthSecret)
	validate := validator.New()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/signup", auth.SignupHandler(dbh, authSvc))
	r.Post("/auth/login", auth.LoginHandler(dbh, authSvc))

	// Quiz flow: anonymous and authenticated callers both welcome.
	r.Group(func(qr chi.Router) {
		qr.Use(authmw.OptionalJWT(authSvc))
		qr.Get("/quiz/allowance", api.AllowanceHandler(gate))
		qr.Get("/quiz/questions", api.QuizQuestionsHandler(store))
		qr.Post("/quiz/submit", api.SubmitHandler(engine, coord, validate, cfg.SecureCookies))
	})

	// Persisted results: authenticated only.
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(store))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(store))
	})

	// Admin surfaces.
	r.Group(func(ar chi.Router) {
		ar.Use(authmw.JWTMiddleware(authSvc))
		ar.With(rbac.Require("questions:manage")).
			Post("/admin/questions", api.UploadQuestionsHandler(store))
		ar.With(rbac.Require("users:manage")).
			Get("/admin/users", api.ListUsersHandler(dbh))
		ar.With(rbac.Require("users:manage")).
			Patch("/admin/users/{userID}/access", api.SetAccessLevelHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
