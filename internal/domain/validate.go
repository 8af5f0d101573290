package domain

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the package-level validator instance used for all struct
// validation.
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report violations under the JSON field name, not the Go one.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct validates a struct based on its validation tags.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
