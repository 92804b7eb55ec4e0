package auth

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"tasker/internal/constants"
)

var usernameRegex = regexp.MustCompile(constants.AuthUsernameRegex)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their request parameter name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("auth: register username validation: %v", err))
	}
	return v
}

// Validator returns the validator with the "username" tag registered, for
// packages that validate request structs carrying usernames.
func Validator() *validator.Validate {
	return validate
}

// ValidateUsername checks the username format.
func ValidateUsername(username string) error {
	if err := validate.Var(username, "required,username"); err != nil {
		return fmt.Errorf("username must match pattern: %s", constants.AuthUsernameRegex)
	}
	return nil
}

// ValidatePassword checks the password length bounds.
func ValidatePassword(password string) error {
	tag := fmt.Sprintf("required,min=%d,max=%d", constants.AuthMinPasswordLength, constants.AuthMaxPasswordLength)
	if err := validate.Var(password, tag); err != nil {
		return fmt.Errorf("password must be %d to %d characters", constants.AuthMinPasswordLength, constants.AuthMaxPasswordLength)
	}
	return nil
}

// ValidateRole checks that role is a known membership or global role.
func ValidateRole(role int) error {
	tag := fmt.Sprintf("min=%d,max=%d", constants.RoleMin, constants.RoleMax)
	if err := validate.Var(role, tag); err != nil {
		return fmt.Errorf("role must be between %d and %d", constants.RoleMin, constants.RoleMax)
	}
	return nil
}
