package validation

import (
	"reflect"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	upperCodeRe = regexp.MustCompile(`^[A-Z0-9]+$`)
	usernameRe  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("notfuture", isNotFuture); err != nil {
		return err
	}
	if err := v.RegisterValidation("upper_code", isUpperCode); err != nil {
		return err
	}
	if err := v.RegisterValidation("username", isUsername); err != nil {
		return err
	}
	if err := v.RegisterValidation("expense_type", oneOfFunc(ExpenseTypes)); err != nil {
		return err
	}
	if err := v.RegisterValidation("payment_method", oneOfFunc(PaymentMethods)); err != nil {
		return err
	}
	if err := v.RegisterValidation("specialization", oneOfFunc(Specializations)); err != nil {
		return err
	}
	return nil
}

var (
	ExpenseTypes    = []string{"kasbon", "overtime", "emergency", "material", "equipment", "transportation", "other"}
	PaymentMethods  = []string{"cash", "bank_transfer", "check", "credit_card", "other"}
	Specializations = []string{"residential", "commercial", "industrial", "infrastructure", "renovation", "interior", "landscaping", "general"}
)

func oneOfFunc(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, a := range allowed {
			if s == a {
				return true
			}
		}
		return false
	}
}

// isNotFuture accepts dates up to the end of the current day.
func isNotFuture(fl validator.FieldLevel) bool {
	var t time.Time
	switch fl.Field().Kind() {
	case reflect.Struct:
		tv, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		t = tv
	case reflect.String:
		parsed, err := time.Parse("2006-01-02", fl.Field().String())
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, fl.Field().String())
			if err != nil {
				return false
			}
		}
		t = parsed
	default:
		return false
	}
	now := time.Now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(time.Second-1), now.Location())
	return !t.After(endOfDay)
}

func isUpperCode(fl validator.FieldLevel) bool {
	return upperCodeRe.MatchString(fl.Field().String())
}

func isUsername(fl validator.FieldLevel) bool {
	return usernameRe.MatchString(fl.Field().String())
}
