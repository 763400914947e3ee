package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"quizmaker/internal/attempt"
	"quizmaker/internal/auth"
	"quizmaker/internal/config"
	"quizmaker/internal/models"
	"quizmaker/internal/question"
	"quizmaker/internal/quiz"
	"quizmaker/pkg/cache"
	"quizmaker/pkg/database"
	"quizmaker/pkg/events"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Token revocation on logout needs Redis; without it logout only clears
	// the cookie.
	revocations := auth.NoopRevocations
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		defer redisCache.Close()
		if err := redisCache.Ping(context.Background()); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		revocations = redisCache
	}

	publisher := events.Noop
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("Failed to connect to broker: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	// Initialize repositories
	authRepo := auth.NewRepository(db)
	quizRepo := quiz.NewRepository(db)
	questionRepo := question.NewRepository(db)
	attemptRepo := attempt.NewRepository(db)

	// Initialize services
	authService := auth.NewService(authRepo, tokens, revocations)
	quizService := quiz.NewService(quizRepo)
	questionService := question.NewService(questionRepo, quizService)
	attemptService := attempt.NewService(attemptRepo, quizService, publisher)

	// Initialize handlers
	authHandler := auth.NewHandler(authService, auth.CookieOptions{
		Secure: cfg.Production(),
		MaxAge: tokens.TTL(),
	})
	quizHandler := quiz.NewHandler(quizService)
	questionHandler := question.NewHandler(questionService, quizService)
	attemptHandler := attempt.NewHandler(attemptService, quizService)

	router := mux.NewRouter()

	// Auth routes - no token required
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("POST")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(authService.Middleware())

	instructor := func(h http.HandlerFunc) http.HandlerFunc { return auth.RequireRole(models.RoleInstructor, h) }
	student := func(h http.HandlerFunc) http.HandlerFunc { return auth.RequireRole(models.RoleStudent, h) }

	apiRouter.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	apiRouter.HandleFunc("/quizzes", quizHandler.ListQuizzes).Methods("GET")
	apiRouter.HandleFunc("/quizzes", instructor(quizHandler.CreateQuiz)).Methods("POST")
	apiRouter.HandleFunc("/quizzes/{id}", quizHandler.GetQuiz).Methods("GET")
	apiRouter.HandleFunc("/quizzes/{id}", instructor(quizHandler.UpdateQuiz)).Methods("PUT")
	apiRouter.HandleFunc("/quizzes/{id}", instructor(quizHandler.DeleteQuiz)).Methods("DELETE")
	apiRouter.HandleFunc("/quizzes/{id}/publish", instructor(quizHandler.PublishQuiz)).Methods("POST")
	apiRouter.HandleFunc("/quizzes/{id}/unpublish", instructor(quizHandler.UnpublishQuiz)).Methods("POST")
	apiRouter.HandleFunc("/quizzes/{id}/stats", instructor(quizHandler.GetStats)).Methods("GET")

	apiRouter.HandleFunc("/quizzes/{id}/questions", questionHandler.ListQuestions).Methods("GET")
	apiRouter.HandleFunc("/quizzes/{id}/questions", instructor(questionHandler.CreateQuestion)).Methods("POST")
	apiRouter.HandleFunc("/quizzes/{id}/questions/reorder", instructor(questionHandler.ReorderQuestions)).Methods("POST")
	apiRouter.HandleFunc("/quizzes/{id}/questions/{questionId}", questionHandler.GetQuestion).Methods("GET")
	apiRouter.HandleFunc("/quizzes/{id}/questions/{questionId}", instructor(questionHandler.UpdateQuestion)).Methods("PUT")
	apiRouter.HandleFunc("/quizzes/{id}/questions/{questionId}", instructor(questionHandler.DeleteQuestion)).Methods("DELETE")

	apiRouter.HandleFunc("/student/quizzes/{id}", student(attemptHandler.GetQuiz)).Methods("GET")
	apiRouter.HandleFunc("/student/quizzes/{id}/start", student(attemptHandler.StartQuiz)).Methods("POST")
	apiRouter.HandleFunc("/student/attempts", student(attemptHandler.ListAttempts)).Methods("GET")
	apiRouter.HandleFunc("/student/attempts/{id}", student(attemptHandler.GetAttempt)).Methods("GET")
	apiRouter.HandleFunc("/student/attempts/{id}/complete", student(attemptHandler.CompleteAttempt)).Methods("POST")
	apiRouter.HandleFunc("/student/attempts/{id}/abandon", student(attemptHandler.AbandonAttempt)).Methods("POST")
	apiRouter.HandleFunc("/student/stats", student(attemptHandler.GetStats)).Methods("GET")

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server shutdown gracefully")
}
