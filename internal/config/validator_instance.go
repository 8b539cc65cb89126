package config

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	providerIDPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
	projectKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// validatorInstance configures and returns the shared validator instance
// used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("provider_id", func(fl validator.FieldLevel) bool {
			return providerIDPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("project_key", func(fl validator.FieldLevel) bool {
			return projectKeyPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns the configured validator instance for use outside
// the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}
