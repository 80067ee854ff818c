package configs

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/redis/go-redis/v9"
)

type Configs struct {
	Env      Env
	Db       Db
	Redis    *redis.Client
	Validate *validator.Validate
}

func NewConfigs(env Env, db Db, redis *redis.Client) Configs {
	return Configs{
		Env:      env,
		Db:       db,
		Redis:    redis,
		Validate: NewValidate(),
	}
}

func NewValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// "required" alone accepts strings made of whitespace
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}

	// report violations under the wire name, not the Go field name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}
