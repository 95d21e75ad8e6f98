// Package validation configures gin's go-playground validator for the
// marketplace request types and maps its errors to apperrors.Validation.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var once sync.Once

// Engine returns gin's validator with the decimal type, the notblank tag and
// JSON field names registered.
func Engine() *validator.Validate {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		panic("validation: gin binding engine is not go-playground/validator")
	}
	once.Do(func() {
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return v
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

// Struct validates obj against its binding tags.
func Struct(obj interface{}) error {
	return translate(Engine().Struct(obj))
}

// BindJSON decodes the body into obj and validates it. Every failure is a
// Validation error.
func BindJSON(c *gin.Context, obj interface{}) error {
	Engine()
	if err := c.ShouldBindJSON(obj); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Validation("Invalid request: " + err.Error())
	}
	return apperrors.Validation(message(verrs[0]))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.StructField() + " cannot be empty"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.StructField(), fe.Param())
	case "gt":
		if fe.Param() == "0" {
			return fe.StructField() + " must be positive"
		}
		return fmt.Sprintf("%s must be greater than %s", fe.StructField(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.StructField(), fe.Param())
	case "oneof":
		return fmt.Sprintf("Invalid %s: %v", fe.Field(), deref(fe.Value()))
	default:
		return fmt.Sprintf("Invalid %s", fe.Field())
	}
}

func deref(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}
