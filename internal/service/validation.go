package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// NewValidator returns a validator that knows the domain tags and reports json field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("doc_category", func(fl validator.FieldLevel) bool {
		return models.DocumentCategory(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("schedule_type", func(fl validator.FieldLevel) bool {
		return models.ScheduleType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("date_ymd", func(fl validator.FieldLevel) bool {
		return isDate(fl.Field().String())
	})
	_ = v.RegisterValidation("clock_hm", func(fl validator.FieldLevel) bool {
		return clockRe.MatchString(fl.Field().String())
	})
	return v
}

func isDate(value string) bool {
	if !dateRe.MatchString(value) {
		return false
	}
	_, err := time.Parse(models.DateLayout, value)
	return err == nil
}

// validateStruct runs v over payload and converts failures into a coded application error.
func validateStruct(v *validator.Validate, payload interface{}) error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Internal(err, "failed to validate payload")
	}
	return translateValidation(fieldErrs)
}

func translateValidation(fieldErrs validator.ValidationErrors) error {
	details := make([]appErrors.FieldError, 0, len(fieldErrs))
	var code *appErrors.Error
	for _, fe := range fieldErrs {
		details = append(details, appErrors.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		candidate := codeFor(fe)
		switch {
		case code == nil:
			code = candidate
		case candidate == appErrors.ErrMissingRequiredFields:
			code = candidate
		}
	}
	return appErrors.WithDetails(code, details...)
}

func codeFor(fe validator.FieldError) *appErrors.Error {
	switch fe.Tag() {
	case "required":
		return appErrors.ErrMissingRequiredFields
	case "doc_category":
		return appErrors.ErrInvalidCategory
	case "schedule_type":
		return appErrors.ErrInvalidScheduleType
	case "date_ymd":
		return appErrors.ErrInvalidDateFormat
	case "clock_hm":
		return appErrors.ErrInvalidTimeFormat
	case "max":
		if fe.Field() == "title" {
			return appErrors.ErrTitleTooLong
		}
	case "min":
		switch fe.Field() {
		case "password":
			return appErrors.ErrInvalidPassword
		case "newPassword":
			return appErrors.ErrInvalidNewPassword
		}
	}
	return appErrors.ErrValidation
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "nonblank":
		return fe.Field() + " must not be blank"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "doc_category":
		return fe.Field() + " must be one of 공문, 회의자료, 양식, 기타"
	case "schedule_type":
		return fe.Field() + " must be one of 회의, 행사, 업무, 기타"
	case "date_ymd":
		return fe.Field() + " must use the YYYY-MM-DD format"
	case "clock_hm":
		return fe.Field() + " must use the HH:MM format"
	}
	return fe.Field() + " is invalid"
}

// fieldError builds a single-field validation failure for checks the struct tags cannot express.
func fieldError(template *appErrors.Error, field, message string) error {
	return appErrors.WithDetails(template, appErrors.FieldError{Field: field, Message: message})
}
