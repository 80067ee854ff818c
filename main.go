package main

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/IhorD12/authcore-backend-service/configs"
	"github.com/IhorD12/authcore-backend-service/internal/handlers"
	"github.com/IhorD12/authcore-backend-service/internal/services"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}
	logger := log.With().Caller().Logger()

	env, err := configs.LoadEnv()
	if err != nil {
		logger.Fatal().Err(err).Send()
	}

	ctx := context.TODO()
	db, err := configs.NewDb(ctx, env.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Send()
	}

	redisClient, err := configs.NewRedis(env.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Send()
	}

	config := configs.NewConfigs(env, db, redisClient)

	authService := services.NewAuthService(config)
	authenticator := handlers.NewProdAuthenticator(authService)
	customMiddleware := handlers.NewMiddlewareHandler(authenticator)
	rest := handlers.NewRestHandler(config, customMiddleware)

	if err := http.ListenAndServe(":8080", rest); err != nil {
		logger.Fatal().Err(err).Send()
	}
}
