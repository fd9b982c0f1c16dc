package listing

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	vOnce sync.Once
	vInst *validator.Validate

	handleRe = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)
)

// Validator returns the shared validator with the notblank and tghandle tags registered.
func Validator() *validator.Validate {
	vOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("tghandle", func(fl validator.FieldLevel) bool {
			return handleRe.MatchString(fl.Field().String())
		})
		vInst = v
	})
	return vInst
}
