package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationErrorDetail represents the structure of a single validation error.
type ValidationErrorDetail struct {
	Field    string      `json:"field"`
	Message  string      `json:"message"`
	Expected string      `json:"expected"`
	Received interface{} `json:"received"`
}

// ValidationFailureCode matches the code the services report for rejected
// input, so clients handle both the same way.
const ValidationFailureCode = "VALIDATION_FAILURE"

// ValidationErrorData represents the data field in the validation error response.
type ValidationErrorData struct {
	Errors        []ValidationErrorDetail `json:"errors"`
	Documentation string                  `json:"documentation"`
}

const DocumentationLink = "/swagger/index.html"

// BindAndValidate binds the request body to the given object and validates it.
// If validation fails, it sends a formatted error response and returns false.
// If validation succeeds, it returns true.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors []ValidationErrorDetail

		// Handle validator.ValidationErrors
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range errs {
				field := getJSONTagName(obj, e.StructField())
				detail := ValidationErrorDetail{
					Field:    field,
					Message:  fmt.Sprintf("Field '%s' failed on the '%s' tag", field, e.Tag()),
					Expected: e.Param(),
					Received: e.Value(),
				}

				if detail.Expected == "" {
					detail.Expected = e.Tag()
				}

				switch e.Tag() {
				case "required":
					detail.Message = fmt.Sprintf("Field '%s' is required", field)
					detail.Expected = "not null"
				case "min", "gte":
					detail.Message = fmt.Sprintf("Field '%s' must be at least %s", field, e.Param())
					detail.Expected = ">= " + e.Param()
				case "max", "lte":
					detail.Message = fmt.Sprintf("Field '%s' must be at most %s", field, e.Param())
					detail.Expected = "<= " + e.Param()
				case "gt":
					detail.Message = fmt.Sprintf("Field '%s' must be greater than %s", field, e.Param())
					detail.Expected = "> " + e.Param()
				case "oneof":
					detail.Message = fmt.Sprintf("Field '%s' must be one of [%s]", field, e.Param())
				}

				validationErrors = append(validationErrors, detail)
			}
		} else if jsonErr, ok := err.(*json.UnmarshalTypeError); ok {
			// Handle JSON type mismatch errors
			detail := ValidationErrorDetail{
				Field:    jsonErr.Field,
				Message:  fmt.Sprintf("Field '%s' has invalid type", jsonErr.Field),
				Expected: jsonErr.Type.String(),
				Received: jsonErr.Value,
			}
			validationErrors = append(validationErrors, detail)
		} else {
			// Handle other errors (e.g., malformed JSON)
			detail := ValidationErrorDetail{
				Field:    "body",
				Message:  "Malformed JSON or invalid request body",
				Expected: "valid JSON",
				Received: "invalid",
			}
			validationErrors = append(validationErrors, detail)
		}

		response := NewCodedErrorResponse(http.StatusBadRequest, ValidationFailureCode, "Invalid request parameters", ValidationErrorData{
			Errors:        validationErrors,
			Documentation: DocumentationLink,
		})

		c.JSON(http.StatusBadRequest, response)
		return false
	}
	return true
}

// getJSONTagName maps a struct field to the name clients send.
func getJSONTagName(obj interface{}, fieldName string) string {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fieldName
	}
	if f, ok := t.FieldByName(fieldName); ok {
		if tag := strings.Split(f.Tag.Get("json"), ",")[0]; tag != "" && tag != "-" {
			return tag
		}
	}
	return fieldName
}
