package configs

import (
	"os"

	"github.com/joho/godotenv"
)

type Env struct {
	DatabaseURL    string
	RedisURL       string
	AllowedOrigins string
	ClientId       string
	SecretKey      string
	OriginURL      string
}

func LoadEnv(filenames ...string) (Env, error) {
	if err := godotenv.Load(filenames...); err != nil {
		return Env{}, err
	}

	env := Env{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		ClientId:       os.Getenv("CLIENT_ID"),
		SecretKey:      os.Getenv("SECRET_KEY"),
		OriginURL:      os.Getenv("ORIGIN_URL"),
	}

	return env, nil
}
