// internal/app/system/inputval/validators.go
package inputval

import (
	"fmt"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Custom tags. Empty strings pass so the tags combine with omitempty or
// required.
const (
	tagNotBlank = "notblank"
	tagDate     = "yyyymmdd"
	tagMonth    = "yyyymm"
	tagRFC3339  = "rfc3339"
)

func registerCustom() {
	mustRegister(validate, tagNotBlank, notBlank)
	mustRegister(validate, tagDate, layout("2006-01-02"))
	mustRegister(validate, tagMonth, layout("2006-01"))
	mustRegister(validate, tagRFC3339, layout(time.RFC3339))

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{tagNotBlank, tagDate, tagMonth, tagRFC3339} {
		if err := validate.RegisterTranslation(tag, translator, noop, translateCustom); err != nil {
			panic(fmt.Sprintf("inputval: register translation %q: %v", tag, err))
		}
	}
}

// mustRegister panics when v rejects the tag, so a bad tag name fails at
// init rather than silently skipping validation.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("inputval: register validation %q: %v", tag, err))
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case tagNotBlank:
		return fe.Field() + " cannot be blank"
	case tagDate:
		return fe.Field() + " must be a date in YYYY-MM-DD form"
	case tagMonth:
		return fe.Field() + " must be a month in YYYY-MM form"
	case tagRFC3339:
		return fe.Field() + " must be an RFC 3339 timestamp"
	default:
		return fe.Field() + " is invalid"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && strings.TrimSpace(s) != ""
}

func layout(l string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		if s == "" {
			return true
		}
		_, err := time.Parse(l, s)
		return err == nil
	}
}

// IsDate reports whether s is a YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	return s != "" && validate.Var(s, tagDate) == nil
}

// IsMonth reports whether s is a YYYY-MM month.
func IsMonth(s string) bool {
	return s != "" && validate.Var(s, tagMonth) == nil
}
