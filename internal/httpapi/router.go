package httpapi

import (
	"net/http"

	_ "github.com/PabloPavan/data_explorer/docs"
	"github.com/PabloPavan/data_explorer/internal/session"
	"github.com/PabloPavan/data_explorer/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type App struct {
	ServiceName string
	Health      *HealthHandler
	Users       *UsersHandler
	Sessions    *session.Manager
	Cookie      session.CookieConfig
}

func NewRouter(app *App) http.Handler {
	serviceName := app.ServiceName
	if serviceName == "" {
		serviceName = "data-explorer"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.HTTPMiddleware(serviceName))

	r.Get("/health", app.Health.Get)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(app.Sessions, app.Cookie))
		r.Use(localeMiddleware)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/users", http.StatusFound)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", app.Users.Page)
			r.Get("/events", app.Users.Events)

			r.Post("/search", app.Users.Search)
			r.Post("/age", app.Users.Age)
			r.Post("/sort", app.Users.Sort)
			r.Post("/page", app.Users.ChangePage)
			r.Post("/clear", app.Users.Clear)
			r.Post("/reload", app.Users.Reload)
		})
	})
	return r
}
