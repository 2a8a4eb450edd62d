package api

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/go-recipe-api/internal/types"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in errors use the json tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// decimal.Decimal is validated through its canonical string form.
		validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		mustRegister("notblank", validators.NotBlank)
		mustRegister("dec_min", validateDecimalMin)
		mustRegister("decimal", validateDecimalShape)
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("registering %s validation: %v", tag, err))
	}
}

// decimalShape returns the digit counts before and after the point,
// ignoring leading and trailing zeros.
func decimalShape(d decimal.Decimal) (whole, places int) {
	intPart, frac, _ := strings.Cut(d.Abs().String(), ".")
	return len(strings.TrimLeft(intPart, "0")), len(frac)
}

// parseDecimalParam reads a "<max digits>.<decimal places>" tag parameter.
func parseDecimalParam(param string) (maxDigits, places int) {
	a, b, _ := strings.Cut(param, ".")
	maxDigits, _ = strconv.Atoi(a)
	places, _ = strconv.Atoi(b)
	return maxDigits, places
}

func validateDecimalMin(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	limit, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}
	return d.GreaterThanOrEqual(limit)
}

// validateDecimalShape enforces a NUMERIC(p,s)-style limit given as decimal=p.s.
func validateDecimalShape(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return decimalMessage(d, fl.Param()) == ""
}

// decimalMessage names the first violated limit, checked in the order
// total digits, decimal places, whole digits. An empty result means the value fits.
func decimalMessage(d decimal.Decimal, param string) string {
	maxDigits, maxPlaces := parseDecimalParam(param)
	whole, places := decimalShape(d)
	switch {
	case whole+places > maxDigits:
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", maxDigits)
	case places > maxPlaces:
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", maxPlaces)
	case whole > maxDigits-maxPlaces:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxDigits-maxPlaces)
	}
	return ""
}

// ValidateStruct runs struct tag validation and converts failures into a
// *types.ValidationError keyed by json field name.
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating request: %w", err)
	}
	out := &types.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "notblank":
		return "This field may not be blank."
	case "dec_min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "decimal":
		if s, ok := fe.Value().(string); ok {
			if d, err := decimal.NewFromString(s); err == nil {
				if msg := decimalMessage(d, fe.Param()); msg != "" {
					return msg
				}
			}
		}
		return "A valid number is required."
	default:
		return fmt.Sprintf("Failed %q validation.", fe.Tag())
	}
}
