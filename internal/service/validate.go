package service

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
)

// checkStruct validates v against its tags and converts the first
// violation into a port.ValidationError carrying the JSON field name.
func checkStruct(v interface{}) error {
	err := domain.ValidateStruct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "must satisfy " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &port.ValidationError{Field: fe.Field(), Reason: reason}
	}
	return &port.ValidationError{Reason: err.Error()}
}
