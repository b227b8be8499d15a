package handlers

import (
	"reflect"
	"strings"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// SetupValidator registers the ledger's binding tags on gin's validator. Decimal fields
// are validated through their string form.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("dgt0", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("idprefix", func(fl validator.FieldLevel) bool {
		return domain.IdentifierPrefix(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("dealstage", func(fl validator.FieldLevel) bool {
		return domain.DealStage(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("accountrole", func(fl validator.FieldLevel) bool {
		return domain.AccountRole(fl.Field().String()).IsValid()
	})
}

// validationDetails renders binding failures as field -> message.
func validationDetails(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, e := range verrs {
		details[e.Field()] = validationMessage(e)
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "dgt0":
		return "Must be a decimal greater than zero"
	case "idprefix":
		return "Unknown identifier prefix"
	case "dealstage":
		return "Unknown deal stage"
	case "accountrole":
		return "Unknown account role"
	case "min":
		return "Must be at least " + e.Param()
	case "max":
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}
