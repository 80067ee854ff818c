package handlers

import (
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/IhorD12/authcore-backend-service/configs"
	"github.com/IhorD12/authcore-backend-service/internal/services"
)

func NewRestHandler(configs configs.Configs, customMiddleware MiddlewareHandler) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.CleanPath)
	router.Use(chiMiddleware.RealIP)
	router.Use(customMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(httprate.LimitByIP(100, 1*time.Minute))

	options := cors.Options{
		AllowedOrigins:   strings.Split(configs.Env.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"User-Agent", "Content-Type", "Accept", "Accept-Encoding", "Accept-Language", "Cache-Control", "Connection", "Host", "Origin", "Referer", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	router.Use(cors.Handler(options))
	router.Use(chiMiddleware.Heartbeat("/ping"))

	healthHandler := NewHealthHandler(time.Now())
	router.Get("/health", healthHandler.Check)

	authService := services.NewAuthService(configs)
	userService := services.NewUserService(configs)
	twoFactorService := services.NewTwoFactorService(configs)
	authHandler := NewAuthHandler(configs, authService, userService, twoFactorService)
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Post("/auth/google", authHandler.LoginWithGoogle)
	router.Post("/auth/refresh", authHandler.Refresh)
	router.Post("/auth/logout", authHandler.Logout)
	router.Post("/auth/2fa/verify", authHandler.VerifyTwoFactor)

	router.Group(func(r chi.Router) {
		r.Use(customMiddleware.Authenticate)

		userHandler := NewUserHandler(configs, userService)
		r.Get("/profile", userHandler.GetProfile)
		r.Put("/profile/2fa", userHandler.UpdateTwoFactorSettings)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuthorizeRoles("admin"))
			r.Get("/admin/dashboard", userHandler.GetAdminDashboard)
		})
	})

	return router
}
