package validators

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/la-reminders/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Struct validates dest against its `validate` tags. Fields listed in except
// (by Go field name) are skipped, which lets callers check a record before
// every field has been filled in.
func Struct(dest any, except ...string) error {
	var err error
	if len(except) > 0 {
		err = validate.StructExcept(dest, except...)
	} else {
		err = validate.Struct(dest)
	}
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		fields := make([]string, 0, len(errs))
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
			fields = append(fields, fieldErr.Field())
		}
		sort.Strings(fields)
		msg := fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
		return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be < %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "hexadecimal":
		return "must be hexadecimal"
	}
	return "is invalid"
}
