package routes

import (
	"net/http"

	_ "github.com/Dosada05/scoreboard/docs" // регистрирует swagger-спецификацию
	"github.com/Dosada05/scoreboard/handlers"
	"github.com/Dosada05/scoreboard/middleware"
	"github.com/Dosada05/scoreboard/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	matchHandler *handlers.MatchHandler,
	scheduleHandler *handlers.ScheduleHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	router.Get("/healthz", handlers.HealthCheck)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Табло читают все, счет ведут судьи
	router.Get("/ws/matches/{matchID}", webSocketHandler.ServeWs)

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", matchHandler.ListMatches)
		r.Get("/{matchID}", matchHandler.GetMatch)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.JWTSecret))
			r.Use(middleware.Authorize(models.RoleReferee, models.RoleAdmin))

			r.Post("/", matchHandler.CreateMatch)
			r.Post("/{matchID}/actions", matchHandler.ApplyAction)
			r.Post("/{matchID}/sync", matchHandler.SyncMatch)
			r.Delete("/{matchID}", matchHandler.DeleteMatch)
		})
	})

	router.Route("/schedules", func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret))
		r.Use(middleware.Authorize(models.RoleReferee, models.RoleAdmin))

		r.Post("/round-robin", scheduleHandler.ScheduleRoundRobin)
	})
}
