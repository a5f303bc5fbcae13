package config

import (
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	splitterTypes   = []string{"recursive", "character", "token"}
	lengthFunctions = []string{"character_count", "len", "token_count", "tiktoken"}
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("splitter_type", oneOfFold(splitterTypes)); err != nil {
		return err
	}
	return v.RegisterValidation("length_function", oneOfFold(lengthFunctions))
}

func oneOfFold(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, strings.ToLower(strings.TrimSpace(fl.Field().String())))
	}
}
