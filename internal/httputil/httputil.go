package httputil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/go-playground/validator/v10"
)

func DecodeAndValidate(req *http.Request, validate *validator.Validate, v interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return err
	}

	if err := validate.Struct(v); err != nil {
		return err
	}

	return nil
}

type SendSuccessResponseParams struct {
	StatusCode int
	ResBody    interface{}
}

func SendSuccessResponse(res http.ResponseWriter, params SendSuccessResponseParams) error {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(params.StatusCode)

	if params.ResBody == nil {
		return nil
	}

	return json.NewEncoder(res).Encode(params.ResBody)
}

type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type validationErrorBody struct {
	Message    string           `json:"message"`
	Violations []FieldViolation `json:"violations,omitempty"`
}

// SendValidationErrorResponse writes a 400 response. Violations are included
// per field when err is a validator.ValidationErrors; decode errors get the
// generic message only.
func SendValidationErrorResponse(res http.ResponseWriter, err error) error {
	resBody := validationErrorBody{Message: "Invalid request body"}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		resBody.Violations = make([]FieldViolation, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			resBody.Violations = append(resBody.Violations, FieldViolation{
				Field:   fieldErr.Field(),
				Rule:    fieldErr.Tag(),
				Message: violationMessage(fieldErr),
			})
		}
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusBadRequest)
	return json.NewEncoder(res).Encode(resBody)
}

func violationMessage(fieldErr validator.FieldError) string {
	field := fieldErr.Field()

	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "notblank":
		return fmt.Sprintf("%s must be a non-empty string", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters long", field, fieldErr.Param())
	case "number":
		return fmt.Sprintf("%s must contain only digits", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fieldErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
