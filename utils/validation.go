// utils/validation.go
package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	phoneRegex        = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	customerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9\s.,'-]+$`)

	registerOnce sync.Once
	registerErr  error
)

// maxIntegerDigits matches decimal(12,2)
const maxIntegerDigits = 10

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	return phoneRegex.MatchString(cleaned)
}

// ValidMoney reports whether raw is a positive decimal that fits decimal(12,2).
func ValidMoney(raw string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() {
		return false
	}
	return len(d.Truncate(0).Abs().String()) <= maxIntegerDigits
}

// RegisterValidators adds the custom binding tags used by request structs:
// money, phone and customername.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("unexpected validator engine")
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		rules := map[string]validator.Func{
			"money": func(fl validator.FieldLevel) bool {
				return ValidMoney(fl.Field().String())
			},
			"phone": func(fl validator.FieldLevel) bool {
				return ValidatePhone(fl.Field().String())
			},
			"customername": func(fl validator.FieldLevel) bool {
				return customerNameRegex.MatchString(fl.Field().String())
			},
		}
		for tag, fn := range rules {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = err
				return
			}
		}
	})
	return registerErr
}

// FieldErrors converts binding errors into messages grouped by JSON field
// name. ok is false when err is not a validation error.
func FieldErrors(err error) (map[string][]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], fieldMessage(fe))
	}
	return out, true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Email should be valid"
	case "money":
		return "Amount must be greater than 0 with up to 10 digits before and 2 after the decimal point"
	case "phone":
		return "Invalid phone number format"
	case "customername":
		return "Customer name contains invalid characters"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
