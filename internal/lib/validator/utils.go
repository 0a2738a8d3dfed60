package validator

import (
	"errors"
	"fmt"
	"movietracker/proj/internal/utils"
	"reflect"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
)

// New returns a validator with the custom validations used by request DTOs registered.
func New() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("safesort", ValidateSafeSort); err != nil {
		panic(err)
	}
	return v
}

func structType(obj any) reflect.Type {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func getFieldName(obj any, origFieldName string) (fieldName string) {
	t := structType(obj)
	field, found := t.FieldByName(origFieldName)
	if !found {
		return utils.CamelToSnake(origFieldName)
	}
	for _, tagName := range []string{"json", "schema"} {
		if tag := field.Tag.Get(tagName); tag != "" && tag != "-" {
			if name := strings.Split(tag, ",")[0]; name != "" {
				return name
			}
		}
	}
	return utils.CamelToSnake(origFieldName)
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) map[string]string {
	processedErrors := make(map[string]string)
	for _, e := range errs {
		processedErrors[getFieldName(obj, e.StructField())] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

func ValidateStruct(validator *govalidator.Validate, obj any) (validationErrs map[string]string) {
	if err := validator.Struct(obj); err != nil {
		var errs govalidator.ValidationErrors
		if !errors.As(err, &errs) {
			panic(err)
		}
		validationErrs = ProcessValidationErrors(obj, errs)
	}
	return
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	if field, found := structType(obj).FieldByName(err.StructField()); found {
		errorMsg = field.Tag.Get("errorMsg")
	}
	if errorMsg == "" {
		switch err.Tag() {
		case "required":
			errorMsg = "This field is required"
		case "max":
			errorMsg = fmt.Sprintf("The maximum value is %s", err.Param())
		case "min":
			errorMsg = fmt.Sprintf("The minimum value is %s", err.Param())
		case "gte":
			errorMsg = fmt.Sprintf("Value should be greater than or equal to %s", err.Param())
		case "lte":
			errorMsg = fmt.Sprintf("Value should be less than or equal to %s", err.Param())
		case "lt":
			errorMsg = fmt.Sprintf("Value should be less than %s", err.Param())
		case "gt":
			errorMsg = fmt.Sprintf("Value should be greater than %s", err.Param())
		case "eqfield", "eq":
			errorMsg = fmt.Sprintf("Value should be equal to %s", err.Param())
		case "oneof":
			errorMsg = fmt.Sprintf("Value should be one of %s", err.Param())
		case "len":
			errorMsg = fmt.Sprintf("Length should be equal to %s", err.Param())
		case "email":
			errorMsg = "Value must be a valid email address"
		case "alphanum":
			errorMsg = "Value must be alphanumeric"
		case "safesort":
			errorMsg = "Value must be a sortable movie field (e.g. title, -year, -rating)"
		default:
			errorMsg = "This field is invalid"
		}
	}
	return
}

// CUSTOM VALIDATORS

// ValidateSafeSort checks the field against the parent's SortIsSafe method.
func ValidateSafeSort(fl govalidator.FieldLevel) bool {
	parent := fl.Parent()
	if !parent.CanAddr() {
		copied := reflect.New(parent.Type())
		copied.Elem().Set(parent)
		parent = copied.Elem()
	}
	sortable, ok := parent.Addr().Interface().(interface{ SortIsSafe() bool })
	if !ok {
		return false
	}
	return sortable.SortIsSafe()
}
