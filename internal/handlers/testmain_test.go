package handlers

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/IhorD12/authcore-backend-service/configs"
)

var testServer *httptest.Server
var testClient *http.Client
var testConfigs configs.Configs

const (
	testUserToken  = "test-user-token"
	testAdminToken = "test-admin-token"
)

var testUser = AuthenticatedUser{
	Id:    "c4ca54a5-3b9b-4cd0-a9c8-6a4f63a3c2b1",
	Email: "user@example.com",
	Roles: []string{"user"},
}

var testAdmin = AuthenticatedUser{
	Id:    "8d3f1c2e-5a7b-4e89-b1d4-2f9c6e0a7d35",
	Email: "admin@example.com",
	Roles: []string{"user", "admin"},
}

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)

	env, err := configs.LoadEnv("../../.test.env")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.TODO()
	db, err := configs.NewDb(ctx, env.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	redis, err := configs.NewRedis(env.RedisURL)
	if err != nil {
		log.Fatal(err)
	}

	testConfigs = configs.NewConfigs(env, db, redis)

	// Guarded routes resolve identities through a fixed token table, so the
	// profile and dashboard tests don't have to mint JWTs
	authenticator := NewTestAuthenticator(map[string]AuthenticatedUser{
		testUserToken:  testUser,
		testAdminToken: testAdmin,
	})

	customMiddleware := NewMiddlewareHandler(authenticator)
	router := NewRestHandler(testConfigs, customMiddleware)

	testServer = httptest.NewServer(router)
	defer testServer.Close()
	testClient = testServer.Client()

	exitCode := m.Run()
	os.Exit(exitCode)
}
