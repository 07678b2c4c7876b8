package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/mcoot/quizroom/internal/api/apierr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the name the client used
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("path"); name != "" {
			return name
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode fills req from the JSON body, then from path variables, and validates it.
// req must be a pointer to a struct. An empty body is allowed; path variables win
// over body fields of the same name.
func Decode(r *http.Request, req any) error {
	if r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(req)
		if err != nil && !errors.Is(err, io.EOF) {
			return apierr.NewInvalidRequestError("invalid request body")
		}
	}

	bindPath(mux.Vars(r), req)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apierr.NewInvalidRequestError(describe(verrs[0]))
		}
		return apierr.NewInvalidRequestError("invalid request")
	}
	return nil
}

// bindPath copies path variables into string fields tagged `path:"name"`
func bindPath(vars map[string]string, req any) {
	v := reflect.ValueOf(req)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	t := v.Type()
	for i := range t.NumField() {
		name := t.Field(i).Tag.Get("path")
		if name == "" {
			continue
		}
		value, ok := vars[name]
		if !ok {
			continue
		}
		if f := v.Field(i); f.Kind() == reflect.String && f.CanSet() {
			f.SetString(value)
		}
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
